package soundbank

import (
	"bytes"
	"testing"
)

func TestRepairOggHeader(t *testing.T) {
	valid := append(append([]byte{}, oggPageStart...), 0x12, 0x34, 0x56)
	mangled := []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0x12, 0x34, 0x56, 0x78, 1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name    string
		in      []byte
		want    []byte
		wantErr bool
	}{
		{name: "valid unchanged", in: valid, want: valid},
		{name: "mangled", in: mangled, want: append(append([]byte{}, oggPageStart...), mangled[6:]...)},
		{name: "too short", in: []byte{1, 2, 3}, wantErr: true},
		{name: "all zeros", in: make([]byte, 20), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repairOggHeader(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("got % x\nwant % x", got, tt.want)
			}
		})
	}
}
