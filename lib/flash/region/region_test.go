package region

import (
	"testing"

	"github.com/ValentinKolb/fKV/lib/flash"
)

var testGeo = flash.Geometry{PageSize: 128, WriteAlign: 4, Size: 64 * 1024}

func TestResolve(t *testing.T) {
	const base = 0x0800_0000

	tests := []struct {
		name    string
		pl      Placement
		wantErr bool
		want    Region
	}{
		{
			name: "valid placement",
			pl:   Placement{Start: base + 1024, End: base + 2048, BaseOffset: base, PageCount: 8},
			want: Region{Start: 1024, End: 2048},
		},
		{
			name:    "start not below end",
			pl:      Placement{Start: base + 2048, End: base + 1024, BaseOffset: base, PageCount: 8},
			wantErr: true,
		},
		{
			name:    "start below base offset",
			pl:      Placement{Start: 512, End: base + 2048, BaseOffset: base, PageCount: 8},
			wantErr: true,
		},
		{
			name:    "unaligned start",
			pl:      Placement{Start: base + 1000, End: base + 2048, BaseOffset: base, PageCount: 8},
			wantErr: true,
		},
		{
			name:    "unaligned end",
			pl:      Placement{Start: base + 1024, End: base + 2000, BaseOffset: base, PageCount: 8},
			wantErr: true,
		},
		{
			name:    "wrong page count",
			pl:      Placement{Start: base + 1024, End: base + 2048, BaseOffset: base, PageCount: 4},
			wantErr: true,
		},
		{
			name:    "beyond device",
			pl:      Placement{Start: base + 60*1024, End: base + 70*1024, BaseOffset: base, PageCount: 80},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.pl, testGeo)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got region %s", got)
				}
				if _, ok := err.(*ConfigError); !ok {
					t.Errorf("expected *ConfigError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
