package domain

// QualityThreshold — порог качества чтений для demux.
//
// Инструменты с квантованной шкалой качества (четыре значения)
// делают пороги тоньше Q20 бессмысленными, поэтому высокие tiers
// используют более грубый порог.
type QualityThreshold string

const (
	// QualityQ25 — порог Q25, полная шкала качества.
	QualityQ25 QualityThreshold = "Q25"

	// QualityQ20 — порог Q20, квантованная шкала.
	QualityQ20 QualityThreshold = "Q20"
)

// Score возвращает числовое значение порога (25 или 20)
// для передачи внешнему demux-инструменту.
func (q QualityThreshold) Score() int {
	if q == QualityQ20 {
		return 20
	}
	return 25
}

// ComputeProfile — пара compute-профилей и настройки памяти,
// выбранные по числу tiles на run.
//
// Профиль выбирается один раз на launch и не меняется: все lane jobs
// одного run получают одинаковый LaneJobProfile.
type ComputeProfile struct {
	// ConsolidationProfile — инстанс для consolidation job
	// (склейка частичных tar-архивов).
	ConsolidationProfile string `json:"consolidation_profile"`

	// LaneJobProfile — инстанс для каждого lane demux job.
	LaneJobProfile string `json:"lane_job_profile"`

	// QualityThreshold — порог качества для demux.
	QualityThreshold QualityThreshold `json:"quality_threshold"`

	// MaxReadsPerTile — лимит чтений одного tile, удерживаемых в памяти.
	MaxReadsPerTile uint `json:"max_reads_per_tile"`

	// MaxRecordsInMemory — общий лимит записей в памяти процесса demux.
	MaxRecordsInMemory uint `json:"max_records_in_memory"`
}
