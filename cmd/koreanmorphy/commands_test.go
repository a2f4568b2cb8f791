package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steosofficial/koreanmorphy/analyzer"
	"github.com/steosofficial/koreanmorphy/model"
)

func writeModel(t *testing.T, observation string) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.ObservationFile), []byte(observation), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.IrregularFile), []byte(""), 0o644))
	return dir
}

const baseObservation = "사람\tNNG\t2\n그\tMM\t1\n은\tJX\t1\n나무\tNNG\t2\n위키\tNNG\t2\n"

func TestRunAnalyze(t *testing.T) {
	dir := writeModel(t, baseObservation)

	tests := []struct {
		name  string
		opts  analyzeOpts
		args  []string
		stdin string
		want  string
	}{
		{name: "args", opts: analyzeOpts{model: dir}, args: []string{"그사람은"}, want: "그/MM 사람/NNG 은/JX\n"},
		{name: "stdin lines", opts: analyzeOpts{model: dir}, stdin: "사람\n\n나무위키\n", want: "사람/NNG\n나무/NNG 위키/NNG\n"},
		{name: "spacing", opts: analyzeOpts{model: dir, spacing: true}, args: []string{"그", "사람은"}, want: "그/MM 사람/NNG 은/JX\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			opts := tt.opts
			require.NoError(t, runAnalyze(&opts, tt.args, strings.NewReader(tt.stdin), &out))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRunAnalyze_JSON(t *testing.T) {
	dir := writeModel(t, baseObservation)

	var out bytes.Buffer
	require.NoError(t, runAnalyze(&analyzeOpts{model: dir, asJSON: true}, []string{"사람"}, nil, &out))
	var res analyzer.Result
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Tokens, 1)
	assert.Equal(t, "사람", res.Tokens[0].Morph)
	assert.Equal(t, analyzer.ClassNoun, res.Tokens[0].Class)
}

func TestRunAnalyze_Errors(t *testing.T) {
	dir := writeModel(t, baseObservation)

	err := runAnalyze(&analyzeOpts{model: dir}, []string{"", "사람"}, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, analyzer.ErrEmptyToken)

	err = runAnalyze(&analyzeOpts{model: filepath.Join(dir, "missing")}, []string{"사람"}, nil, &bytes.Buffer{})
	assert.Error(t, err)

	userDic := filepath.Join(dir, "user.dic")
	require.NoError(t, os.WriteFile(userDic, []byte("나무위키\tXYZ\n"), 0o644))
	err = runAnalyze(&analyzeOpts{model: dir, userDic: userDic}, []string{"사람"}, nil, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunCompile(t *testing.T) {
	dir := writeModel(t, baseObservation)
	out := filepath.Join(t.TempDir(), model.BinaryModelFile)

	require.NoError(t, runCompile(&compileOpts{src: dir, out: out}))

	var buf bytes.Buffer
	require.NoError(t, runAnalyze(&analyzeOpts{model: out}, []string{"그사람은"}, nil, &buf))
	assert.Equal(t, "그/MM 사람/NNG 은/JX\n", buf.String())

	assert.Error(t, runCompile(&compileOpts{src: dir}))
	assert.Error(t, runCompile(&compileOpts{src: t.TempDir(), out: out}))
}

func TestRunDiff(t *testing.T) {
	base := writeModel(t, baseObservation)
	other := writeModel(t, baseObservation+"나무위키\tNNP\t1\n")

	var out bytes.Buffer
	require.NoError(t, runDiff(&diffOpts{model: base, other: other}, []string{"사람", "나무위키"}, nil, &out))
	assert.Equal(t, "  사람/NNG\n- 나무/NNG 위키/NNG\n+ 나무위키/NNP\n", out.String())
}
