// unit_test.go
package tests

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steosofficial/koreanmorphy/analyzer"
	"github.com/steosofficial/koreanmorphy/model"
)

var (
	modelDir  string
	binPath   string
	resources *model.Resources
	komoran   *analyzer.Komoran
)

const observationSrc = `# surface	tag	cost
사람	NNG	2
그	MM	1
그사람	NNP	10
은	JX	1
는	JX	1
이	JKS	1
가	JKS	1
를	JKO	1
나무	NNG	2
위키	NNG	2
하늘	NNG	2
학교	NNG	2
에	JKB	1
가	VV	2
아서	EC	1
아	EC	1
았	EP	1
다	EF	1
.	SF	1
`

const irregularSrc = `도와	돕/VV+아/EC	2
갔	가/VV+았/EP	2
`

// TestMain compiles a small model once and loads the compiled form for all
// tests in the package.
func TestMain(m *testing.M) {
	var err error
	modelDir, err = os.MkdirTemp("", "koreanmorphy-tests")
	if err != nil {
		log.Fatalf("failed to create model dir: %v", err)
	}

	files := map[string]string{
		model.ObservationFile: observationSrc,
		model.IrregularFile:   irregularSrc,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(modelDir, name), []byte(content), 0o644); err != nil {
			log.Fatalf("failed to write %s: %v", name, err)
		}
	}

	src, err := model.LoadSources(modelDir)
	if err != nil {
		log.Fatalf("failed to load model sources: %v", err)
	}
	binPath = filepath.Join(modelDir, "compiled", model.BinaryModelFile)
	if err := os.MkdirAll(filepath.Dir(binPath), 0o755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}
	if err := model.Compile(src, binPath); err != nil {
		log.Fatalf("failed to compile model: %v", err)
	}
	resources, err = model.Load(binPath)
	if err != nil {
		log.Fatalf("failed to load compiled model: %v", err)
	}
	komoran = analyzer.New(resources)

	code := m.Run()
	resources.Close()
	os.RemoveAll(modelDir)
	os.Exit(code)
}

// --- ANALYZE ---

func TestAnalyze_Sentences(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "single noun", text: "사람", expected: "사람/NNG"},
		{name: "cheaper split beats long entry", text: "그사람은", expected: "그/MM 사람/NNG 은/JX"},
		{name: "several tokens", text: "하늘 학교에", expected: "하늘/NNG 학교/NNG 에/JKB"},
		{name: "irregular form", text: "도와", expected: "돕/VV 아/EC"},
		{name: "irregular form extended", text: "도와서", expected: "돕/VV 아서/EC"},
		{name: "irregular followed by regular", text: "갔다", expected: "가/VV 았/EP 다/EF"},
		{name: "punctuation", text: "하늘.", expected: "하늘/NNG ./SF"},
		{name: "number run", text: "2024", expected: "2024/SN"},
		{name: "latin run", text: "wiki", expected: "wiki/SL"},
		{name: "mixed runs", text: "abc123", expected: "abc/SL 123/SN"},
		{name: "hanja run", text: "漢字", expected: "漢字/SH"},
		{name: "unknown symbol", text: "★", expected: "★/SW"},
		{name: "unknown syllable", text: "뷁", expected: "뷁/NA"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := komoran.Analyze(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.PlainText())
		})
	}
}

func TestAnalyze_EmptyToken(t *testing.T) {
	_, err := komoran.Analyze("사람  나무")
	assert.ErrorIs(t, err, analyzer.ErrEmptyToken)
}

func TestAnalyze_TextAndBinaryModelsAgree(t *testing.T) {
	text, err := model.Load(modelDir)
	require.NoError(t, err)
	defer text.Close()
	fromText := analyzer.New(text)

	for _, sentence := range []string{"그사람은", "도와서", "갔다", "하늘 학교에", "abc123 漢字"} {
		a, err := fromText.Analyze(sentence)
		require.NoError(t, err)
		b, err := komoran.Analyze(sentence)
		require.NoError(t, err)
		assert.Equal(t, a.Tokens, b.Tokens, sentence)
	}
}

// --- SPACING ---

func TestAnalyzeWithSpacing(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "two chunks", text: "나무 위키", expected: "나무/NNG 위키/NNG"},
		{name: "unknown chunk is bridged", text: "하늘 뷁 사람", expected: "하늘/NNG 뷁/NA 사람/NNG"},
		{name: "irregular chunk", text: "하늘 도와서", expected: "하늘/NNG 돕/VV 아서/EC"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := komoran.AnalyzeWithSpacing(tc.text)
			assert.Equal(t, tc.expected, res.PlainText())
		})
	}
}

// --- DICTIONARIES ---

func TestUserAndForwardDictionaries(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "user.dic")
	fwdPath := filepath.Join(dir, "fwd.dic")
	require.NoError(t, os.WriteFile(userPath, []byte("# user entries\n나무위키\tNNP\n하늘학교\n"), 0o644))
	require.NoError(t, os.WriteFile(fwdPath, []byte("감기는\t감기/NNG+는/JX\n"), 0o644))

	k := analyzer.New(resources)
	require.NoError(t, k.LoadUserDic(userPath))
	require.NoError(t, k.LoadFwdDic(fwdPath))

	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "user entry", text: "나무위키", expected: "나무위키/NNP"},
		{name: "user entry without tag", text: "하늘학교", expected: "하늘학교/NNP"},
		{name: "forward entry", text: "감기는", expected: "감기/NNG 는/JX"},
		{name: "mixed", text: "감기는 나무위키를", expected: "감기/NNG 는/JX 나무위키/NNP 를/JKO"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := k.Analyze(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.PlainText())
		})
	}

	// a failed reload keeps the dictionary in use
	bad := filepath.Join(dir, "bad.dic")
	require.NoError(t, os.WriteFile(bad, []byte("위키\tNOPE\n"), 0o644))
	assert.Error(t, k.LoadUserDic(bad))
	res, err := k.Analyze("나무위키")
	require.NoError(t, err)
	assert.Equal(t, "나무위키/NNP", res.PlainText())

	// the shared model is untouched
	res, err = komoran.Analyze("나무위키")
	require.NoError(t, err)
	assert.Equal(t, "나무/NNG 위키/NNG", res.PlainText())
}

// --- BATCH ---

func TestAnalyzeList(t *testing.T) {
	inputs := make([]string, 0, 300)
	for i := 0; i < 100; i++ {
		inputs = append(inputs, "그사람은", "하늘 학교에", "도와서")
	}
	inputs[42] = ""

	results := komoran.AnalyzeList(inputs)
	require.Len(t, results, len(inputs))
	for i, res := range results {
		if i == 42 {
			assert.ErrorIs(t, res.Err, analyzer.ErrEmptyToken)
			continue
		}
		require.NoError(t, res.Err)
		single, err := komoran.Analyze(inputs[i])
		require.NoError(t, err)
		assert.Equal(t, single.PlainText(), res.PlainText(), "input %d", i)
	}
}

func TestResult_Nouns(t *testing.T) {
	res, err := komoran.Analyze("하늘 학교에 사람")
	require.NoError(t, err)
	assert.Equal(t, []string{"하늘", "학교", "사람"}, res.Nouns())
	assert.True(t, strings.Contains(res.PlainText(), "에/JKB"))
}
