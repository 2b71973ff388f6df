package fdtd

import (
	"bytes"
	"math"
	"testing"

	"physviz/internal/grid"
	"physviz/internal/params"
)

func TestPaletteZeroIsResetColor(t *testing.T) {
	p := NewPalette()
	if got := p.Color(0, 1); got != ResetColor {
		t.Fatalf("Color(0) = %v, want %v", got, ResetColor)
	}
	if got := p.Index(0, 7.5); got != PaletteSize/2 {
		t.Fatalf("Index(0) = %d, want centre %d", got, PaletteSize/2)
	}
}

func TestPaletteSaturatesAndClamps(t *testing.T) {
	p := NewPalette()
	cases := []struct {
		ez, gain float32
		want     int
	}{
		{1, 1, PaletteSize - 1},
		{50, 1, PaletteSize - 1},
		{-1, 1, 0},
		{-0.1, 100, 0},
		{float32(math.Inf(1)), 1, PaletteSize - 1},
		{float32(math.NaN()), 1, 0},
	}
	for _, tc := range cases {
		if got := p.Index(tc.ez, tc.gain); got != tc.want {
			t.Errorf("Index(%v, %v) = %d, want %d", tc.ez, tc.gain, got, tc.want)
		}
	}
}

func TestPaletteDivergesAndBrightens(t *testing.T) {
	p := NewPalette()
	neg := p.Color(-0.8, 1)
	pos := p.Color(0.8, 1)
	if neg.B <= neg.R {
		t.Fatalf("negative colour %v should lean blue", neg)
	}
	if pos.R <= pos.B {
		t.Fatalf("positive colour %v should lean red", pos)
	}
	luma := func(v float32) int {
		c := p.Color(v, 1)
		return int(c.R) + int(c.G) + int(c.B)
	}
	if !(luma(0.1) < luma(0.5) && luma(0.5) < luma(1)) {
		t.Fatal("brightness should grow with |Ez|")
	}
	for i := 0; i < PaletteSize; i++ {
		if p.entries[i].A != 255 {
			t.Fatalf("entry %d is not opaque", i)
		}
	}
}

func TestVisualizeIsPureFunctionOfEz(t *testing.T) {
	s := Setup{Width: 24, Height: 16, Courant: 0.5, Gain: 2, Workers: 4}
	a, err := NewCPUBackend(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCPUBackend(s)
	if err != nil {
		t.Fatal(err)
	}
	src := randomFields(24, 16, 5)
	ca, cb := a.(*cpuBackend), b.(*cpuBackend)
	if err := ca.fields.CopyFrom(src); err != nil {
		t.Fatal(err)
	}
	copy(cb.fields.Ez.Cells(), src.Ez.Cells())

	for _, be := range []Backend{a, b, a} {
		if err := be.Visualize(); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(a.Surface().Pix(), b.Surface().Pix()) {
		t.Fatal("identical Ez with different H produced different images")
	}
	pal := NewPalette()
	ez := src.Ez
	for y := 0; y < ez.H; y++ {
		for x := 0; x < ez.W; x++ {
			if got, want := a.Surface().At(x, y), pal.Color(ez.At(x, y), 2); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestBarrierCells(t *testing.T) {
	cfg := BarrierConfig{Enabled: true, X: 0.5, Thickness: 1}
	block := params.Block{SlitWidth: 0.04, GrateWidth: 0.4, SlitCount: 2, ScreenSize: 1}
	cells := BarrierCells(100, 100, cfg, block, nil)

	walled := map[int32]bool{}
	for _, idx := range cells {
		walled[idx] = true
		if int(idx)%100 != 50 {
			t.Fatalf("barrier cell %d outside column 50", idx)
		}
	}
	// Two 4-row slits centred on rows 30 and 70.
	if len(cells) != 92 {
		t.Fatalf("barrier has %d cells, want 92", len(cells))
	}
	for _, row := range []int{28, 31, 68, 71} {
		if walled[int32(row*100+50)] {
			t.Fatalf("row %d should be a slit", row)
		}
	}
	for _, row := range []int{0, 27, 32, 50, 67, 72, 99} {
		if !walled[int32(row*100+50)] {
			t.Fatalf("row %d should be walled", row)
		}
	}

	keep := []int32{int32(50*100 + 50)}
	if got := BarrierCells(100, 100, cfg, block, keep); len(got) != 91 {
		t.Fatalf("keep-out cell was walled: %d cells", len(got))
	}
	if BarrierCells(100, 100, BarrierConfig{}, block, nil) != nil {
		t.Fatal("disabled barrier returned cells")
	}
	solid := BarrierCells(10, 10, cfg, params.Block{ScreenSize: 1}, nil)
	if len(solid) != 10 {
		t.Fatalf("zero slits should give a solid wall, got %d cells", len(solid))
	}
}

func TestCPUBackendRejectsBadCells(t *testing.T) {
	if _, err := NewCPUBackend(Setup{Width: 4, Height: 4, SourceCells: []int32{16}}); err == nil {
		t.Fatal("expected out-of-range source to fail")
	}
	b, err := NewCPUBackend(Setup{Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetBarrier([]int32{-1}); err == nil {
		t.Fatal("expected negative barrier index to fail")
	}
	f := grid.NewFields(3, 3)
	if err := b.ReadFields(f); err == nil {
		t.Fatal("expected size mismatch on readback")
	}
}
