package runinfo

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// Структурные пути обязательных полей дескриптора.
const (
	fieldRun          = "Run"
	fieldRunID        = "Run.Id"
	fieldLayout       = "Run.FlowcellLayout"
	fieldLaneCount    = "Run.FlowcellLayout.LaneCount"
	fieldSurfaceCount = "Run.FlowcellLayout.SurfaceCount"
	fieldSwathCount   = "Run.FlowcellLayout.SwathCount"
	fieldTileCount    = "Run.FlowcellLayout.TileCount"
)

// Промежуточные структуры XML-документа.
//
// Атрибуты парсятся как *string, а не числа: так отсутствие атрибута
// отличимо от нуля, и каждое поле получает свою ошибку с именем,
// вместо общей ошибки encoding/xml.
type flowcellLayout struct {
	LaneCount    *string `xml:"LaneCount,attr"`
	SurfaceCount *string `xml:"SurfaceCount,attr"`
	SwathCount   *string `xml:"SwathCount,attr"`
	TileCount    *string `xml:"TileCount,attr"`
}

type runElement struct {
	ID             *string         `xml:"Id,attr"`
	FlowcellLayout *flowcellLayout `xml:"FlowcellLayout"`
}

type runInfoDoc struct {
	XMLName xml.Name    `xml:"RunInfo"`
	Run     *runElement `xml:"Run"`
}

// Parse извлекает RunDescriptor из run-дескриптора (RunInfo.xml).
//
// Поиск полей структурный — по фиксированным путям
// Run.FlowcellLayout.{LaneCount,SurfaceCount,SwathCount,TileCount}
// и Run.Id, без свободного поиска по тексту. Все поля обязательны;
// любое отсутствующее, пустое или неположительное поле возвращает
// MalformedRunDescriptorError с именем поля.
func Parse(r io.Reader) (domain.RunDescriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.RunDescriptor{}, err
	}
	return ParseBytes(data)
}

// ParseBytes — как Parse, но для уже прочитанного документа.
func ParseBytes(data []byte) (domain.RunDescriptor, error) {
	var doc runInfoDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return domain.RunDescriptor{}, newFieldError("RunInfo", "is not a valid XML document: "+err.Error())
	}

	if doc.Run == nil {
		return domain.RunDescriptor{}, newFieldError(fieldRun, "is missing")
	}

	runID, err := requireString(fieldRunID, doc.Run.ID)
	if err != nil {
		return domain.RunDescriptor{}, err
	}

	layout := doc.Run.FlowcellLayout
	if layout == nil {
		return domain.RunDescriptor{}, newFieldError(fieldLayout, "is missing")
	}

	laneCount, err := requireCount(fieldLaneCount, layout.LaneCount)
	if err != nil {
		return domain.RunDescriptor{}, err
	}
	surfaceCount, err := requireCount(fieldSurfaceCount, layout.SurfaceCount)
	if err != nil {
		return domain.RunDescriptor{}, err
	}
	swathCount, err := requireCount(fieldSwathCount, layout.SwathCount)
	if err != nil {
		return domain.RunDescriptor{}, err
	}
	tileCount, err := requireCount(fieldTileCount, layout.TileCount)
	if err != nil {
		return domain.RunDescriptor{}, err
	}

	return domain.RunDescriptor{
		RunID:        runID,
		LaneCount:    laneCount,
		SurfaceCount: surfaceCount,
		SwathCount:   swathCount,
		TileCount:    tileCount,
	}, nil
}

// requireString проверяет обязательный строковый атрибут.
func requireString(field string, raw *string) (string, error) {
	if raw == nil {
		return "", newFieldError(field, "is missing")
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return "", newFieldError(field, "is empty")
	}
	return value, nil
}

// requireCount проверяет обязательный положительный числовой атрибут.
func requireCount(field string, raw *string) (uint, error) {
	value, err := requireString(field, raw)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, newFieldError(field, "is not a positive integer: "+value)
	}
	if n == 0 {
		return 0, newFieldError(field, "must be positive, got 0")
	}
	return uint(n), nil
}
