// Package sizing выбирает compute profile по числу tiles на run.
//
// Полное число tiles — прокси объёма данных run (не точный байтовый
// размер; приближение принято сознательно). Выбор идёт по
// упорядоченной таблице инклюзивных верхних границ: первая подходящая
// строка выигрывает, последняя строка — catch-all без границы.
// Добавление нового tier — это новая строка таблицы, не новая ветка.
package sizing

import "github.com/shaiso/Lanekeeper/internal/domain"

// tier — строка таблицы: инклюзивная верхняя граница и профиль.
type tier struct {
	// maxTiles — верхняя граница tier (включительно).
	// 0 означает catch-all: строка принимает любой вход.
	maxTiles uint

	profile domain.ComputeProfile
}

// Таблица tiers, от меньших flowcells к большим. Интервалы строго
// монотонны и не пересекаются; граничное значение попадает в нижний
// tier (инклюзивное ≤). Tiers выше 624 tiles используют порог Q20:
// инструменты такого масштаба отдают квантованную шкалу качества
// из четырёх значений, и более тонкий порог не имеет смысла.
var tiers = []tier{
	{maxTiles: 50, profile: domain.ComputeProfile{
		ConsolidationProfile: "mem1_ssd1_v2_x4",
		LaneJobProfile:       "mem1_ssd1_v2_x8",
		QualityThreshold:     domain.QualityQ25,
		MaxReadsPerTile:      1_200_000,
		MaxRecordsInMemory:   8_000_000,
	}},
	{maxTiles: 150, profile: domain.ComputeProfile{
		ConsolidationProfile: "mem1_ssd1_v2_x8",
		LaneJobProfile:       "mem1_ssd1_v2_x16",
		QualityThreshold:     domain.QualityQ25,
		MaxReadsPerTile:      1_200_000,
		MaxRecordsInMemory:   8_000_000,
	}},
	{maxTiles: 288, profile: domain.ComputeProfile{
		ConsolidationProfile: "mem1_ssd1_v2_x8",
		LaneJobProfile:       "mem2_ssd1_v2_x16",
		QualityThreshold:     domain.QualityQ25,
		MaxReadsPerTile:      1_000_000,
		MaxRecordsInMemory:   6_000_000,
	}},
	{maxTiles: 624, profile: domain.ComputeProfile{
		ConsolidationProfile: "mem1_ssd1_v2_x16",
		LaneJobProfile:       "mem2_ssd1_v2_x32",
		QualityThreshold:     domain.QualityQ25,
		MaxReadsPerTile:      800_000,
		MaxRecordsInMemory:   5_000_000,
	}},
	{maxTiles: 864, profile: domain.ComputeProfile{
		ConsolidationProfile: "mem1_ssd1_v2_x16",
		LaneJobProfile:       "mem3_ssd1_v2_x32",
		QualityThreshold:     domain.QualityQ20,
		MaxReadsPerTile:      600_000,
		MaxRecordsInMemory:   4_000_000,
	}},
	{maxTiles: 896, profile: domain.ComputeProfile{
		ConsolidationProfile: "mem1_ssd1_v2_x32",
		LaneJobProfile:       "mem3_ssd1_v2_x32",
		QualityThreshold:     domain.QualityQ20,
		MaxReadsPerTile:      500_000,
		MaxRecordsInMemory:   3_500_000,
	}},
	{maxTiles: 1408, profile: domain.ComputeProfile{
		ConsolidationProfile: "mem1_ssd1_v2_x32",
		LaneJobProfile:       "mem3_ssd1_v2_x48",
		QualityThreshold:     domain.QualityQ20,
		MaxReadsPerTile:      400_000,
		MaxRecordsInMemory:   3_000_000,
	}},
	// Catch-all: всё, что больше 1408 tiles.
	{maxTiles: 0, profile: domain.ComputeProfile{
		ConsolidationProfile: "mem2_ssd1_v2_x32",
		LaneJobProfile:       "mem3_ssd1_v2_x96",
		QualityThreshold:     domain.QualityQ20,
		MaxReadsPerTile:      200_000,
		MaxRecordsInMemory:   2_000_000,
	}},
}

// Size возвращает compute profile для полного числа tiles.
//
// Функция тотальна: любой вход, включая сколь угодно большой,
// попадает ровно в один tier.
func Size(totalTileCount uint) domain.ComputeProfile {
	for _, t := range tiers {
		if t.maxTiles == 0 || totalTileCount <= t.maxTiles {
			return t.profile
		}
	}
	// Недостижимо: последняя строка — catch-all.
	return tiers[len(tiers)-1].profile
}

// SizeFor — как Size, но принимает дескриптор run.
func SizeFor(desc domain.RunDescriptor) domain.ComputeProfile {
	return Size(desc.TotalTileCount())
}
