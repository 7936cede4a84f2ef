package sizing

import (
	"math"
	"testing"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// tierIndex возвращает номер tier, выбранного для входа.
func tierIndex(totalTileCount uint) int {
	for i, t := range tiers {
		if t.maxTiles == 0 || totalTileCount <= t.maxTiles {
			return i
		}
	}
	return len(tiers) - 1
}

func TestSize_Boundaries(t *testing.T) {
	// Граничное значение обязано попадать в нижний tier (инклюзивное ≤),
	// следующее за ним — в верхний.
	tests := []struct {
		tiles uint
		lane  string
	}{
		{50, "mem1_ssd1_v2_x8"},
		{51, "mem1_ssd1_v2_x16"},
		{150, "mem1_ssd1_v2_x16"},
		{151, "mem2_ssd1_v2_x16"},
		{288, "mem2_ssd1_v2_x16"},
		{289, "mem2_ssd1_v2_x32"},
		{624, "mem2_ssd1_v2_x32"},
		{625, "mem3_ssd1_v2_x32"},
		{864, "mem3_ssd1_v2_x32"},
		{896, "mem3_ssd1_v2_x32"},
		{1408, "mem3_ssd1_v2_x48"},
		{1409, "mem3_ssd1_v2_x96"},
	}

	for _, tt := range tests {
		got := Size(tt.tiles)
		if got.LaneJobProfile != tt.lane {
			t.Errorf("Size(%d): expected lane profile %s, got %s", tt.tiles, tt.lane, got.LaneJobProfile)
		}
	}
}

func TestSize_BoundaryTierSplit(t *testing.T) {
	// У каждой границы tier N и N+1 должны отличаться ровно на единицу.
	bounds := []uint{50, 150, 288, 624, 864, 896, 1408}

	for _, b := range bounds {
		low := tierIndex(b)
		high := tierIndex(b + 1)
		if high != low+1 {
			t.Errorf("boundary %d: expected tier %d then %d, got %d then %d", b, low, low+1, low, high)
		}
	}
}

func TestSize_Total(t *testing.T) {
	// Функция тотальна: каждый вход выбирает ровно один tier,
	// включая ноль и максимальное значение uint.
	inputs := []uint{0, 1, 49, 500, 1409, 100_000, math.MaxUint32}

	for _, in := range inputs {
		got := Size(in)
		if got.LaneJobProfile == "" || got.ConsolidationProfile == "" {
			t.Errorf("Size(%d) returned empty profile", in)
		}
	}
}

func TestSize_Monotonic(t *testing.T) {
	// Номер tier не убывает с ростом числа tiles.
	prev := -1
	for tiles := uint(0); tiles <= 2000; tiles++ {
		idx := tierIndex(tiles)
		if idx < prev {
			t.Fatalf("tier index decreased at %d tiles: %d -> %d", tiles, prev, idx)
		}
		prev = idx
	}
}

func TestSize_QualityThreshold(t *testing.T) {
	// Tiers до 624 tiles включительно — Q25, выше — квантованный Q20.
	if got := Size(624).QualityThreshold; got != domain.QualityQ25 {
		t.Errorf("expected Q25 at 624 tiles, got %s", got)
	}
	if got := Size(625).QualityThreshold; got != domain.QualityQ20 {
		t.Errorf("expected Q20 at 625 tiles, got %s", got)
	}
	if got := Size(math.MaxUint32).QualityThreshold; got != domain.QualityQ20 {
		t.Errorf("expected Q20 for catch-all, got %s", got)
	}
}

func TestSizeFor_Descriptor(t *testing.T) {
	// 8 lanes × 2 surfaces × 2 swaths × 28 tiles = 896 → tier с Q20.
	desc := domain.RunDescriptor{
		RunID:        "run1",
		LaneCount:    8,
		SurfaceCount: 2,
		SwathCount:   2,
		TileCount:    28,
	}

	got := SizeFor(desc)
	if got.QualityThreshold != domain.QualityQ20 {
		t.Errorf("expected Q20 for 896 tiles, got %s", got.QualityThreshold)
	}
	if got.LaneJobProfile != "mem3_ssd1_v2_x32" {
		t.Errorf("unexpected lane profile: %s", got.LaneJobProfile)
	}
}
