package model

import (
	"encoding/json"
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	_ "embed"
)

// ResultFile is written by the prescription script in the IO stage
const ResultFile = "result.json"

//go:embed result.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Result"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

// Result is the part of the prescription result the step publishes
type Result struct {
	RunID      string
	Activities []Activity // in document order
	// RiskScoreCard is kept undecoded, see Scores
	RiskScoreCard json.RawMessage
}

type Activity struct {
	Key      string
	LongName string
	Enabled  bool
}

type resultDoc struct {
	RunID         json.RawMessage `json:"runId"`
	RiskScoreCard json.RawMessage `json:"riskScoreCard"`
}

// LoadResult validates the prescription result read from r against a CUE
// schema and decodes it. Use ResultErrDetails to get a readable form of
// validation errors.
func LoadResult(r io.Reader) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, err
	}

	expr, err := cuejson.Extract(ResultFile, raw)
	if err != nil {
		return Result{}, err
	}
	value := cueCtx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return Result{}, err
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Result{}, err
	}

	activities, err := decodeActivities(value)
	if err != nil {
		return Result{}, err
	}

	var doc resultDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Result{}, err
	}

	return Result{
		RunID:         rawString(doc.RunID),
		Activities:    activities,
		RiskScoreCard: doc.RiskScoreCard,
	}, nil
}

// decodeActivities walks the activities in order, which a Go map would lose.
// Missing or null activities are no activities.
func decodeActivities(value cue.Value) ([]Activity, error) {
	if !value.LookupPath(cue.ParsePath("security")).Exists() {
		return nil, ErrNoSecurity
	}
	v := value.LookupPath(cue.ParsePath("security.activities"))
	if !v.Exists() || v.IsNull() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, fmt.Errorf("security.activities: %w", err)
	}

	var ret []Activity
	for iter.Next() {
		key := iter.Selector().Unquoted()
		a, err := decodeActivity(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("security.activities.%s: %w", key, err)
		}
		a.Key = key
		ret = append(ret, a)
	}
	return ret, nil
}

// decodeActivity reads longName like runId: strings as they are, null as
// "null" and a missing value as "". A missing enabled is false.
func decodeActivity(v cue.Value) (Activity, error) {
	var a Activity
	if name := v.LookupPath(cue.ParsePath("longName")); name.Exists() {
		if name.IsNull() {
			a.LongName = "null"
		} else {
			s, err := name.String()
			if err != nil {
				return Activity{}, err
			}
			a.LongName = s
		}
	}
	if enabled := v.LookupPath(cue.ParsePath("enabled")); enabled.Exists() {
		b, err := enabled.Bool()
		if err != nil {
			return Activity{}, err
		}
		a.Enabled = b
	}
	return a, nil
}

// Scores decodes the risk score card. Its absence is reported only here, so
// results without a card are published as long as no scores are asked for.
func (r Result) Scores() ([]RiskScore, error) {
	card, err := decodeScoreCard(r.RiskScoreCard)
	if err != nil {
		return nil, err
	}
	return card.Scores()
}

func decodeScoreCard(raw json.RawMessage) (*RiskScoreCard, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("riskScoreCard: %w", err)
	}

	card := &RiskScoreCard{}
	for name, dst := range map[string]**string{
		"bizCriticalityScore":     &card.BizCriticality,
		"dataClassScore":          &card.DataClass,
		"accessScore":             &card.Access,
		"openVulnScore":           &card.OpenVuln,
		"changeSignificanceScore": &card.ChangeSignificance,
	} {
		value, ok := fields[name]
		if !ok || string(value) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, fmt.Errorf("riskScoreCard.%s: %w", name, ErrInvalidScore)
		}
		*dst = &s
	}
	return card, nil
}

// rawString returns strings unquoted and any other JSON value in its JSON form
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
