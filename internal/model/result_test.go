package model_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/blackduck-inc/io-prescription-action/internal/model"
	"github.com/stretchr/testify/require"
)

const resultJSON = `{
  "runId": "run-42",
  "security": {
    "activities": {
      "sast": {"longName": "Static Analysis", "enabled": false, "reason": ["none"]},
      "SCA": {"longName": "Software Composition Analysis", "enabled": true},
      "pentest": {"longName": "Penetration Testing", "enabled": true}
    }
  },
  "riskScoreCard": {
    "bizCriticalityScore": "3/5",
    "dataClassScore": "1/2",
    "accessScore": "4/4",
    "openVulnScore": "0/1",
    "changeSignificanceScore": "2/3",
    "otherScore": 7
  },
  "extra": {"nested": [1, 2, 3]}
}`

func TestLoadResult(t *testing.T) {
	t.Parallel()
	result, err := model.LoadResult(strings.NewReader(resultJSON))
	require.NoError(t, err)

	require.Equal(t, "run-42", result.RunID)
	require.Equal(t, []model.Activity{
		{Key: "sast", LongName: "Static Analysis", Enabled: false},
		{Key: "SCA", LongName: "Software Composition Analysis", Enabled: true},
		{Key: "pentest", LongName: "Penetration Testing", Enabled: true},
	}, result.Activities)

	scores, err := result.Scores()
	require.NoError(t, err)
	require.Len(t, scores, 5)
	require.Equal(t, model.RiskScore{Label: "Business Criticality Score", Value: "3/5"}, scores[0])
}

func TestLoadResult_RunID(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
		then     string
	}{
		{
			scenario: "number",
			given:    `{"runId": 123, "security": {"activities": {}}}`,
			then:     "123",
		},
		{
			scenario: "missing",
			given:    `{"security": {"activities": {}}}`,
			then:     "",
		},
		{
			scenario: "null",
			given:    `{"runId": null, "security": {"activities": {}}}`,
			then:     "null",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			result, err := model.LoadResult(strings.NewReader(tc.given))
			require.NoError(t, err)
			require.Equal(t, tc.then, result.RunID)
			require.Empty(t, result.Activities)
			require.Nil(t, result.RiskScoreCard)
		})
	}
}

func TestLoadResult_Tolerated(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
		then     []model.Activity
	}{
		{
			scenario: "activities missing",
			given:    `{"runId": "r", "security": {}}`,
		},
		{
			scenario: "activities null",
			given:    `{"runId": "r", "security": {"activities": null}}`,
		},
		{
			scenario: "longName null",
			given:    `{"runId": "r", "security": {"activities": {"sca": {"longName": null, "enabled": true}}}}`,
			then:     []model.Activity{{Key: "sca", LongName: "null", Enabled: true}},
		},
		{
			scenario: "longName and enabled missing",
			given:    `{"runId": "r", "security": {"activities": {"dast": {}}}}`,
			then:     []model.Activity{{Key: "dast"}},
		},
		{
			scenario: "riskScoreCard null",
			given:    `{"runId": "r", "security": {"activities": {}}, "riskScoreCard": null}`,
		},
		{
			scenario: "riskScoreCard of wrong types",
			given:    `{"runId": "r", "security": {"activities": {}}, "riskScoreCard": {"accessScore": 3}}`,
		},
		{
			scenario: "riskScoreCard not an object",
			given:    `{"runId": "r", "security": {"activities": {}}, "riskScoreCard": "high"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			result, err := model.LoadResult(strings.NewReader(tc.given))
			require.NoError(t, err)
			require.Equal(t, "r", result.RunID)
			require.Equal(t, tc.then, result.Activities)
		})
	}
}

func TestResult_Scores(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    string
		then     error
	}{
		{
			scenario: "missing",
			given:    `{"security": {}}`,
			then:     model.ErrMissingScore,
		},
		{
			scenario: "null",
			given:    `{"security": {}, "riskScoreCard": null}`,
			then:     model.ErrMissingScore,
		},
		{
			scenario: "null score",
			given: `{"security": {}, "riskScoreCard": {"bizCriticalityScore": "1/2", "dataClassScore": null,
				"accessScore": "1/2", "openVulnScore": "1/2", "changeSignificanceScore": "1/2"}}`,
			then: model.ErrMissingScore,
		},
		{
			scenario: "number score",
			given: `{"security": {}, "riskScoreCard": {"bizCriticalityScore": "1/2", "dataClassScore": "1/2",
				"accessScore": 3, "openVulnScore": "1/2", "changeSignificanceScore": "1/2"}}`,
			then: model.ErrInvalidScore,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			result, err := model.LoadResult(strings.NewReader(tc.given))
			require.NoError(t, err)
			_, err = result.Scores()
			require.ErrorIs(t, err, tc.then)
		})
	}

	t.Run("not an object", func(t *testing.T) {
		t.Parallel()
		result, err := model.LoadResult(strings.NewReader(`{"security": {}, "riskScoreCard": []}`))
		require.NoError(t, err)
		_, err = result.Scores()
		require.ErrorContains(t, err, "riskScoreCard")
	})
}

func TestLoadResult_Fail(t *testing.T) {
	t.Parallel()

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		_, err := model.LoadResult(strings.NewReader(`{"security":`))
		require.Error(t, err)
	})

	t.Run("no security", func(t *testing.T) {
		t.Parallel()
		_, err := model.LoadResult(strings.NewReader(`{"runId": "1"}`))
		require.ErrorIs(t, err, model.ErrNoSecurity)
	})

	t.Run("security is null", func(t *testing.T) {
		t.Parallel()
		_, err := model.LoadResult(strings.NewReader(`{"runId": "1", "security": null}`))
		require.Error(t, err)
	})

	t.Run("longName is a number", func(t *testing.T) {
		t.Parallel()
		_, err := model.LoadResult(strings.NewReader(`{"security": {"activities": {"sca": {"longName": 5}}}}`))
		require.Error(t, err)
	})

	t.Run("enabled is not a bool", func(t *testing.T) {
		t.Parallel()
		_, err := model.LoadResult(strings.NewReader(`{"security": {"activities": {"sca": {"enabled": "yes"}}}}`))
		require.Error(t, err)
		details := model.ResultErrDetails(err)
		require.NotEmpty(t, details)
		for _, d := range details {
			require.NotEmpty(t, d.Code)
			require.NotEmpty(t, d.Message)
			attr := d.Attr("detail")
			require.Equal(t, "detail", attr.Key)
			require.Equal(t, slog.KindGroup, attr.Value.Kind())
		}
	})
}

func TestResultErrDetails_Nil(t *testing.T) {
	t.Parallel()
	require.Nil(t, model.ResultErrDetails(nil))
}
