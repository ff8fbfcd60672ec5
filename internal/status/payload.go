package status

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// RawPayload is a decoded status response before resolution.
type RawPayload map[string]any

// payloadShape is the top level of a status response. Entries stay raw so
// one malformed record cannot spoil the rest.
type payloadShape struct {
	PrimaryCode *int  `mapstructure:"primaryCode"`
	ListEntries []any `mapstructure:"listEntries"`
}

// entryView holds the display fields of a list entry.
type entryView struct {
	ID          string `mapstructure:"id"`
	ProductName string `mapstructure:"productName"`
	Amount      string `mapstructure:"amount"`
	Locked      bool   `mapstructure:"locked"`
	Overdue     bool   `mapstructure:"overdue"`
}

func (v entryView) entry() Entry {
	return Entry{
		ID:          v.ID,
		ProductName: v.ProductName,
		Amount:      v.Amount,
		Locked:      v.Locked,
		Overdue:     v.Overdue,
	}
}

// entryShape is one list entry minus its sub-status fields.
type entryShape struct {
	entryView          `mapstructure:",squash"`
	RepaymentGate      bool            `mapstructure:"repaymentGate"`
	SubStatus          map[string]any  `mapstructure:"subStatus"`
	RepaymentSubStatus *repaymentShape `mapstructure:"repaymentSubStatus"`
}

type repaymentShape struct {
	Status *string `mapstructure:"status"`
}

// subFields holds the sub-status fields. The backend sends them either inside
// subStatus or flattened onto the entry, so both shapes decode into this type.
type subFields struct {
	Status               *int      `mapstructure:"status"`
	Secondary            *int      `mapstructure:"secondary"`
	RetryAfterDate       *string   `mapstructure:"retryAfterDate"`
	CountdownSeconds     *int      `mapstructure:"countdownSeconds"`
	RetryIntervalSeconds *int      `mapstructure:"retryIntervalSeconds"`
	LoanView             *LoanView `mapstructure:"loanView"`
}

// decodedEntry is an entry with its sub-status already merged.
type decodedEntry struct {
	shape entryShape
	sub   subFields
}

func (e decodedEntry) view() Entry {
	return e.shape.entry()
}

func (e decodedEntry) loanView() LoanView {
	if e.sub.LoanView == nil {
		return LoanView{}
	}
	return *e.sub.LoanView
}

// weakDecode decodes input into out, accepting numbers as strings, "1" as
// true and so on. Blank strings leave pointer fields unset and fractional
// numbers never decode into integer fields.
func weakDecode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			blankToNilHook(),
			integralFloatHook(),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// blankToNilHook maps empty or whitespace-only strings to nil when the
// target is a pointer, so the field reads as absent rather than as 0.
func blankToNilHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Ptr {
			return data, nil
		}
		if strings.TrimSpace(reflect.ValueOf(data).String()) == "" {
			return nil, nil
		}
		return data, nil
	}
}

// integralFloatHook rejects floats with a fractional part bound for an
// integer field. Whole floats such as JSON's 3.0 pass through.
func integralFloatHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
			return data, nil
		}
		for to.Kind() == reflect.Ptr {
			to = to.Elem()
		}
		switch to.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			return data, nil
		}
		f := reflect.ValueOf(data).Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-integral code %v", f)
		}
		return data, nil
	}
}

// decodePayload returns the primary code and the raw list entries.
func decodePayload(p RawPayload) (*int, []any, error) {
	var top payloadShape
	if err := weakDecode(map[string]any(p), &top); err != nil {
		return nil, nil, fmt.Errorf("decode payload: %w", err)
	}
	return top.PrimaryCode, top.ListEntries, nil
}

// decodeViews returns the display fields of every entry that decodes,
// skipping the ones that do not.
func decodeViews(raw []any) []Entry {
	views := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var v entryView
		if !isObject(r) || weakDecode(r, &v) != nil {
			continue
		}
		views = append(views, v.entry())
	}
	return views
}

func decodeEntry(raw any) (decodedEntry, error) {
	var e decodedEntry
	if !isObject(raw) {
		return e, fmt.Errorf("entry is %T, not an object", raw)
	}
	if err := weakDecode(raw, &e.shape); err != nil {
		return e, err
	}

	var flat subFields
	if err := weakDecode(raw, &flat); err != nil {
		return e, fmt.Errorf("flattened sub-status: %w", err)
	}

	var nested subFields
	if e.shape.SubStatus != nil {
		if err := weakDecode(e.shape.SubStatus, &nested); err != nil {
			return e, fmt.Errorf("sub-status: %w", err)
		}
	}

	e.sub = mergeSub(nested, flat)
	return e, nil
}

func isObject(v any) bool {
	return v != nil && reflect.ValueOf(v).Kind() == reflect.Map
}

// mergeSub takes each field from nested when set, else from flat.
func mergeSub(nested, flat subFields) subFields {
	return subFields{
		Status:               firstInt(nested.Status, flat.Status),
		Secondary:            firstInt(nested.Secondary, flat.Secondary),
		RetryAfterDate:       firstString(nested.RetryAfterDate, flat.RetryAfterDate),
		CountdownSeconds:     firstInt(nested.CountdownSeconds, flat.CountdownSeconds),
		RetryIntervalSeconds: firstInt(nested.RetryIntervalSeconds, flat.RetryIntervalSeconds),
		LoanView:             firstLoanView(nested.LoanView, flat.LoanView),
	}
}

func firstInt(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstLoanView(vals ...*LoanView) *LoanView {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
