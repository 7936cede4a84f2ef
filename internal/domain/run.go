package domain

import "fmt"

// RunDescriptor — структурные параметры sequencing run,
// извлечённые из run-дескриптора (RunInfo.xml).
//
// Дескриптор неизменяем после парсинга. Все четыре счётчика обязаны
// присутствовать и быть положительными: отсутствие любого из них —
// ошибка парсинга, а не нулевое значение по умолчанию, потому что
// от произведения счётчиков зависит выбор размера инстансов
// (недооценка памяти на большом run — это упавший demux).
type RunDescriptor struct {
	// RunID — идентификатор run с инструмента (атрибут Run.Id).
	// Например: "240112_M05295_0433_000000000-LBHWG".
	RunID string `json:"run_id"`

	// LaneCount — число lanes на flowcell.
	LaneCount uint `json:"lane_count"`

	// SurfaceCount — число поверхностей (обычно 1 или 2).
	SurfaceCount uint `json:"surface_count"`

	// SwathCount — число полос сканирования на поверхность.
	SwathCount uint `json:"swath_count"`

	// TileCount — число tiles на полосу.
	TileCount uint `json:"tile_count"`
}

// TotalTileCount возвращает полное число tiles на flowcell —
// произведение всех четырёх счётчиков. Это прокси объёма данных
// (не точный байтовый размер), по которому выбирается compute profile.
func (d RunDescriptor) TotalTileCount() uint {
	return d.LaneCount * d.SurfaceCount * d.SwathCount * d.TileCount
}

// String возвращает краткое представление для логов.
func (d RunDescriptor) String() string {
	return fmt.Sprintf("%s (lanes=%d tiles=%d)", d.RunID, d.LaneCount, d.TotalTileCount())
}
