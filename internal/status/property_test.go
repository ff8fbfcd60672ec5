package status

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestResolveEmptyListDependsOnlyOnPrimaryCode verifies that without list
// entries nothing but primaryCode influences the result.
// Property: Resolve({primaryCode: c, listEntries: [], ...noise}) == Resolve({primaryCode: c})
func TestResolveEmptyListDependsOnlyOnPrimaryCode(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("empty list resolves from primaryCode alone", prop.ForAll(
		func(code int, keys []string, values []string) bool {
			noisy := RawPayload{"primaryCode": float64(code), "listEntries": []any{}}
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] == "primaryCode" || keys[i] == "listEntries" {
					continue
				}
				noisy[keys[i]] = values[i]
			}
			plain := RawPayload{"primaryCode": float64(code)}

			return reflect.DeepEqual(Resolve(noisy), Resolve(plain))
		},
		gen.IntRange(-5, 20),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestResolveNestedWinsPerField verifies the sub-status merge is per field.
// Property: an entry carrying both shapes resolves like a flattened-only entry
// built by picking each field from nested when present.
func TestResolveNestedWinsPerField(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	type field struct {
		key     string
		nested  int
		hasNest bool
		flat    int
		hasFlat bool
	}

	properties.Property("nested value wins field by field", prop.ForAll(
		func(ns, fs, nsec, fsec, ncd, fcd int, presence []bool) bool {
			for len(presence) < 6 {
				presence = append(presence, false)
			}
			fields := []field{
				{"status", ns, presence[0], fs, presence[1]},
				{"secondary", nsec, presence[2], fsec, presence[3]},
				{"countdownSeconds", ncd, presence[4], fcd, presence[5]},
			}

			nested := map[string]any{}
			both := map[string]any{}
			merged := map[string]any{}
			for _, f := range fields {
				if f.hasNest {
					nested[f.key] = float64(f.nested)
					merged[f.key] = float64(f.nested)
				}
				if f.hasFlat {
					both[f.key] = float64(f.flat)
					if !f.hasNest {
						merged[f.key] = float64(f.flat)
					}
				}
			}
			both["subStatus"] = nested

			got := Resolve(RawPayload{"listEntries": []any{both}})
			want := Resolve(RawPayload{"listEntries": []any{merged}})
			return reflect.DeepEqual(got, want)
		},
		gen.IntRange(0, 5), gen.IntRange(0, 5),
		gen.IntRange(0, 3), gen.IntRange(0, 3),
		gen.IntRange(0, 90), gen.IntRange(0, 90),
		gen.SliceOfN(6, gen.Bool()),
	))

	properties.TestingRun(t)
}

// TestResolveIdempotent verifies Resolve is a pure function of its input.
// Property: Resolve(p) == Resolve(p) and p is left untouched.
func TestResolveIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("resolve is deterministic and side-effect free", prop.ForAll(
		func(primary, status, secondary int, gate bool, repayment string) bool {
			p := RawPayload{
				"primaryCode": float64(primary),
				"listEntries": []any{
					map[string]any{
						"repaymentGate":      gate,
						"repaymentSubStatus": map[string]any{"status": repayment},
						"subStatus": map[string]any{
							"status":    float64(status),
							"secondary": float64(secondary),
						},
					},
				},
			}
			before := clonePayload(p)

			first := Resolve(p)
			second := Resolve(p)
			return reflect.DeepEqual(first, second) && reflect.DeepEqual(p, before)
		},
		gen.IntRange(0, 12),
		gen.IntRange(0, 5),
		gen.IntRange(0, 3),
		gen.Bool(),
		gen.OneConstOf("disbursing", "disbursement_failed", "repaying", "settled", ""),
	))

	properties.TestingRun(t)
}

func clonePayload(p RawPayload) RawPayload {
	out := make(RawPayload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}
