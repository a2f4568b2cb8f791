package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steosofficial/koreanmorphy/model"
)

func morphs(path []model.MorphTag) []string {
	out := make([]string, len(path))
	for i, mt := range path {
		out[i] = mt.Morph + "/" + mt.Tag
	}
	return out
}

func TestPut_NeedsLivePredecessor(t *testing.T) {
	tags := model.DefaultTagTable()
	nng := tags.MustID("NNG")
	l := New(tags, nil, 3)

	assert.False(t, l.Put(1, 2, "b", "NNG", nng, 1))
	assert.Empty(t, l.Nodes(2))

	require.True(t, l.Put(0, 1, "a", "NNG", nng, 1))
	nodes := l.Nodes(1)
	require.Len(t, nodes, 1)
	assert.Equal(t, 1.0, nodes[0].Score)
	assert.Equal(t, 0, nodes[0].Prev)
	assert.Equal(t, 0, nodes[0].Begin)
}

func TestInsert_KeepsStrictlyCheaper(t *testing.T) {
	tags := model.DefaultTagTable()
	nng := tags.MustID("NNG")
	jx := tags.MustID("JX")
	l := New(tags, nil, 2)

	tests := []struct {
		name      string
		morph     string
		tagID     int
		tag       string
		emission  float64
		wantLen   int
		wantMorph string
		wantScore float64
	}{
		{name: "first reading", morph: "ab", tag: "NNG", tagID: nng, emission: 3, wantLen: 1, wantMorph: "ab", wantScore: 3},
		{name: "cheaper replaces", morph: "ab2", tag: "NNG", tagID: nng, emission: 2, wantLen: 1, wantMorph: "ab2", wantScore: 2},
		{name: "tie keeps earliest", morph: "ab3", tag: "NNG", tagID: nng, emission: 2, wantLen: 1, wantMorph: "ab2", wantScore: 2},
		{name: "dearer is dropped", morph: "ab4", tag: "NNG", tagID: nng, emission: 9, wantLen: 1, wantMorph: "ab2", wantScore: 2},
		{name: "other tag coexists", morph: "ab", tag: "JX", tagID: jx, emission: 7, wantLen: 2, wantMorph: "ab2", wantScore: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, l.Put(0, 2, tt.morph, tt.tag, tt.tagID, tt.emission))
			nodes := l.Nodes(2)
			require.Len(t, nodes, tt.wantLen)
			assert.Equal(t, tt.wantMorph, nodes[0].Morph)
			assert.Equal(t, tt.wantScore, nodes[0].Score)
		})
	}
}

func TestBestPredecessor_EarliestWinsTies(t *testing.T) {
	tags := model.DefaultTagTable()
	nng, nnp, jx := tags.MustID("NNG"), tags.MustID("NNP"), tags.MustID("JX")
	l := New(tags, nil, 2)

	require.True(t, l.Put(0, 1, "a", "NNG", nng, 1))
	require.True(t, l.Put(0, 1, "a", "NNP", nnp, 1))
	require.True(t, l.Put(1, 2, "b", "JX", jx, 1))

	node := l.Nodes(2)[0]
	assert.Equal(t, 0, node.Prev)
	assert.Equal(t, 2.0, node.Score)
}

func TestFindPath_ShortestPath(t *testing.T) {
	tags := model.DefaultTagTable()
	nng, jx := tags.MustID("NNG"), tags.MustID("JX")
	l := New(tags, nil, 2)

	require.True(t, l.Put(0, 1, "a", "NNG", nng, 1))
	require.True(t, l.Put(1, 2, "b", "JX", jx, 1))
	require.True(t, l.Put(0, 2, "ab", "NNG", nng, 5))
	require.True(t, l.AppendEndNode())

	assert.Equal(t, []string{"b/JX", "a/NNG"}, morphs(l.FindPath()))
}

func TestFindPath_TransitionsChangeTheWinner(t *testing.T) {
	tags := model.DefaultTagTable()
	nng, jx := tags.MustID("NNG"), tags.MustID("JX")
	matrix := model.NewTransitionMatrix(tags.Len(), 0)
	require.NoError(t, matrix.Set(nng, jx, 10))
	l := New(tags, matrix, 2)

	require.True(t, l.Put(0, 1, "a", "NNG", nng, 1))
	require.True(t, l.Put(1, 2, "b", "JX", jx, 1))
	require.True(t, l.Put(0, 2, "ab", "NNG", nng, 5))
	require.True(t, l.AppendEndNode())

	assert.Equal(t, []string{"ab/NNG"}, morphs(l.FindPath()))
}

func TestBestPath_ScoresAreMonotone(t *testing.T) {
	tags := model.DefaultTagTable()
	nng, jx := tags.MustID("NNG"), tags.MustID("JX")
	matrix := model.NewTransitionMatrix(tags.Len(), 0.25)
	l := New(tags, matrix, 3)

	require.True(t, l.Put(0, 1, "a", "NNG", nng, 1))
	require.True(t, l.Put(1, 2, "b", "NNG", nng, 0.5))
	require.True(t, l.Put(2, 3, "c", "JX", jx, 0))
	require.True(t, l.AppendEndNode())

	path := l.BestPath()
	require.Len(t, path, 5)
	assert.Equal(t, KindBoundary, path[0].Kind)
	assert.Equal(t, KindStart, path[len(path)-1].Kind)
	for i := 0; i+1 < len(path); i++ {
		assert.GreaterOrEqual(t, path[i].Score, path[i+1].Score)
	}
}

func TestAppendEndNode_FailsOnGap(t *testing.T) {
	tags := model.DefaultTagTable()
	nng, na := tags.MustID("NNG"), tags.MustID(model.TagNA)
	l := New(tags, nil, 3)

	require.True(t, l.Put(0, 1, "a", "NNG", nng, 1))
	assert.False(t, l.AppendEndNode())
	assert.Nil(t, l.FindPath())

	// bridge the gap the way the analyzer does
	l.AppendNode(Node{Begin: 0, End: 3, Morph: "abc", Tag: model.TagNA, TagID: na, LastTagID: na, Prev: 0})
	require.True(t, l.AppendEndNode())
	assert.Equal(t, []string{"abc/NA"}, morphs(l.FindPath()))
}

func TestSentenceBoundaries(t *testing.T) {
	tags := model.DefaultTagTable()
	nng := tags.MustID("NNG")
	// "a b": the space at offset 1 is covered by the first boundary.
	l := New(tags, nil, 3)

	require.True(t, l.Put(0, 1, "a", "NNG", nng, 1))
	l.SetLastIdx(1)
	require.True(t, l.AppendEndNode())
	require.True(t, l.Put(2, 3, "b", "NNG", nng, 1))
	l.SetLastIdx(3)
	require.True(t, l.AppendEndNode())

	assert.Equal(t, 3, l.LastIdx())
	assert.Equal(t, []string{"b/NNG", "a/NNG"}, morphs(l.FindPath()))
}

func TestIrregularAndPendingNodes(t *testing.T) {
	tags := model.DefaultTagTable()
	vv, ec := tags.MustID("VV"), tags.MustID("EC")
	irr := model.IrregularNode{
		Tokens: []model.MorphTag{{Morph: "dob", Tag: "VV", TagID: vv}, {Morph: "a", Tag: "EC", TagID: ec}},
		Score:  2,
	}
	l := New(tags, nil, 3)

	require.True(t, l.PutIrregular(0, 2, irr))
	node := l.Nodes(2)[0]
	assert.Equal(t, KindIrregular, node.Kind)
	assert.Equal(t, "a", node.Morph)
	assert.Equal(t, vv, node.TagID)
	assert.Equal(t, ec, node.LastTagID)
	assert.Equal(t, 2.0, node.Emission)

	pending := node
	pending.End, pending.Morph, pending.Kind = 3, "as", KindPending
	l.AppendNode(pending)
	assert.False(t, l.Put(3, 4, "x", "EC", ec, 0), "pending nodes are never predecessors")

	l.SetLastIdx(2)
	require.True(t, l.AppendEndNode())
	assert.Equal(t, []string{"a/EC", "dob/VV"}, morphs(l.FindPath()))
}

func TestPutTokens(t *testing.T) {
	tags := model.DefaultTagTable()
	vv, ec := tags.MustID("VV"), tags.MustID("EC")
	l := New(tags, nil, 2)

	tokens := []model.MorphTag{{Morph: "dob", Tag: "VV", TagID: vv}, {Morph: "aseo", Tag: "EC", TagID: ec}}
	require.True(t, l.PutTokens(0, 2, "aseo", tokens, 1.5))
	node := l.Nodes(2)[0]
	assert.Equal(t, KindMorpheme, node.Kind)
	assert.Equal(t, "EC", node.Tag)
	assert.Equal(t, 1.5, node.Score)

	require.True(t, l.AppendEndNode())
	assert.Equal(t, []string{"aseo/EC", "dob/VV"}, morphs(l.FindPath()))
}
