package idcode

import "testing"

func TestJEP106Name(t *testing.T) {
	tests := []struct {
		name string
		code JEP106
		want string
		ok   bool
	}{
		{"ST", JEP106ST, "STMicroelectronics", true},
		{"ARM", JEP106ARM, "ARM Ltd", true},
		{"NXP", JEP106NXP, "NXP (Philips)", true},
		{"RPi", JEP106RaspberryPi, "Raspberry Pi Trading Ltd", true},
		{"unknown", JEP106{CC: 0x7, ID: 0x7E}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.code.Name()
			if ok != tt.ok || got != tt.want {
				t.Errorf("Name() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestJEP106StringUnresolved(t *testing.T) {
	got := JEP106{CC: 0x7, ID: 0x7E}.String()
	if got != "<JEP106 [0x7, 0x7e]>" {
		t.Errorf("String() = %q", got)
	}
}

func TestJEP106CodeRoundTrip(t *testing.T) {
	for _, j := range []JEP106{JEP106ARM, JEP106ST, JEP106NXP, JEP106Nordic, JEP106RaspberryPi} {
		if got := FromCode(j.Code()); got != j {
			t.Errorf("FromCode(%#x) = %+v, want %+v", j.Code(), got, j)
		}
	}
	// RP2040 IDCODE manufacturer field
	if got := JEP106RaspberryPi.Code(); got != 0x493 {
		t.Errorf("Code() = %#x, want 0x493", got)
	}
}

func TestVendorOf(t *testing.T) {
	if VendorOf(JEP106ST) != VendorST {
		t.Errorf("ST not classified")
	}
	if VendorOf(JEP106{CC: 1, ID: 1}) != VendorUnknown {
		t.Errorf("unexpected vendor for unknown code")
	}
	if VendorNXP.String() != "NXP" {
		t.Errorf("String() = %q", VendorNXP.String())
	}
}
