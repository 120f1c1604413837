package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

type TargetCard struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Color     string `json:"color,omitempty"`
}

func (c TargetCard) Validate() error {
	var errs []FieldError
	if strings.TrimSpace(c.ID) == "" {
		errs = append(errs, FieldError{Field: "id", Message: "target card id is required"})
	}
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "target title is required"})
	}
	if _, err := ParseISODate(c.StartDate); err != nil {
		errs = append(errs, FieldError{Field: "startDate", Message: err.Error()})
	}
	if _, err := ParseISODate(c.EndDate); err != nil {
		errs = append(errs, FieldError{Field: "endDate", Message: err.Error()})
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// Range returns the parsed start and end dates.
func (c TargetCard) Range() (time.Time, time.Time, error) {
	start, err := ParseISODate(c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseISODate(c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// DataDocument is the per-account data document as stored remotely.
type DataDocument struct {
	Topics     map[string]Topic
	Placements Placements
	Cards      []TargetCard
}

func NewDataDocument() DataDocument {
	return DataDocument{
		Topics:     make(map[string]Topic),
		Placements: NewPlacements(),
		Cards:      make([]TargetCard, 0),
	}
}

func (d DataDocument) Clone() DataDocument {
	out := DataDocument{
		Topics:     make(map[string]Topic, len(d.Topics)),
		Placements: d.Placements.Clone(),
		Cards:      slices.Clone(d.Cards),
	}
	for id, t := range d.Topics {
		out.Topics[id] = t
	}
	if out.Cards == nil {
		out.Cards = make([]TargetCard, 0)
	}
	return out
}

type wireCard struct {
	TargetCard
	Data ColumnData `json:"data,omitempty"`
}

type wireTables struct {
	Table1      map[string]ColumnData `json:"table1"`
	Table2      map[string]ColumnData `json:"table2"`
	TargetCards []wireCard            `json:"targetCards,omitempty"`
}

type wireData struct {
	CompletedTopics map[string]Topic `json:"completedTopics"`
	TableData       *wireTables      `json:"tableData"`
}

func (d DataDocument) MarshalJSON() ([]byte, error) {
	tables := wireTables{
		Table1: d.Placements.Target,
		Table2: d.Placements.Daily,
	}
	if tables.Table1 == nil {
		tables.Table1 = map[string]ColumnData{}
	}
	if tables.Table2 == nil {
		tables.Table2 = map[string]ColumnData{}
	}
	for _, c := range d.Cards {
		tables.TargetCards = append(tables.TargetCards, wireCard{TargetCard: c})
	}
	topics := d.Topics
	if topics == nil {
		topics = map[string]Topic{}
	}
	return json.Marshal(wireData{CompletedTopics: topics, TableData: &tables})
}

// UnmarshalJSON accepts both the canonical shape and the older one where a
// target card carried its own nested column data. Nested data is folded into
// the target placement map and never kept on the card.
func (d *DataDocument) UnmarshalJSON(raw []byte) error {
	var in wireData
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("model: decode data document: %w", err)
	}
	out := NewDataDocument()
	for id, t := range in.CompletedTopics {
		out.Topics[id] = t
	}
	if in.TableData != nil {
		for id, cols := range in.TableData.Table1 {
			out.Placements.Target[id] = cols.Clone()
		}
		for id, cols := range in.TableData.Table2 {
			out.Placements.Daily[id] = cols.Clone()
		}
		for _, wc := range in.TableData.TargetCards {
			out.Cards = append(out.Cards, wc.TargetCard)
			if len(wc.Data) == 0 {
				if _, ok := out.Placements.Target[wc.ID]; !ok {
					out.Placements.Target[wc.ID] = ColumnData{}
				}
				continue
			}
			out.Placements.Target[wc.ID] = mergeColumns(out.Placements.Target[wc.ID], wc.Data)
		}
	}
	*d = out
	return nil
}

func mergeColumns(dst, src ColumnData) ColumnData {
	if dst == nil {
		dst = ColumnData{}
	}
	for col, ids := range src {
		for _, id := range ids {
			if !slices.Contains(dst[col], id) {
				dst[col] = append(dst[col], id)
			}
		}
	}
	return dst
}

func EncodeSettings(s Settings) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSettings(raw []byte) (Settings, error) {
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("model: decode settings: %w", err)
	}
	return s.withDefaults(), nil
}
