package gql

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 7, 250} {
		cursor := offsetToCursor(offset)
		got, ok := cursorToOffset(cursor)
		require.True(t, ok)
		assert.Equal(t, offset, got)
	}
}

func TestCursorToOffsetRejectsGarbage(t *testing.T) {
	for _, cursor := range []string{"", "not base64!!", "bm9wZQ=="} {
		_, ok := cursorToOffset(cursor)
		assert.False(t, ok, "cursor %q", cursor)
	}
}

func fetchFromList(list []interface{}) func(start, end int) ([]interface{}, error) {
	return func(start, end int) ([]interface{}, error) {
		return list[start:end], nil
	}
}

func intList(n int) []interface{} {
	list := make([]interface{}, n)
	for i := range list {
		list[i] = i
	}
	return list
}

// For any list and any (first, after) pair the returned edges must equal the
// corresponding slice while total always reports the full length.
func TestConnectionSliceProperty(t *testing.T) {
	const size = 7
	list := intList(size)
	for first := 0; first <= size+2; first++ {
		for after := -1; after < size; after++ {
			args := map[string]interface{}{"first": first}
			expectStart := 0
			if after >= 0 {
				args["after"] = offsetToCursor(after)
				expectStart = after + 1
			}
			name := fmt.Sprintf("first=%d after=%d", first, after)
			t.Run(name, func(t *testing.T) {
				conn, err := connectionFromFetcher(pageArgsFrom(args), size, fetchFromList(list))
				require.NoError(t, err)
				assert.Equal(t, size, conn.Total)

				expectEnd := expectStart + first
				if expectEnd > size {
					expectEnd = size
				}
				require.Len(t, conn.Edges, expectEnd-expectStart)
				for i, edge := range conn.Edges {
					assert.Equal(t, expectStart+i, edge.Node)
					assert.Equal(t, offsetToCursor(expectStart+i), edge.Cursor)
				}
				assert.Equal(t, expectEnd < size, conn.PageInfo.HasNextPage)
			})
		}
	}
}

func TestConnectionLastBefore(t *testing.T) {
	list := intList(6)
	args := map[string]interface{}{
		"last":   2,
		"before": offsetToCursor(5),
	}
	conn, err := connectionFromFetcher(pageArgsFrom(args), 6, fetchFromList(list))
	require.NoError(t, err)
	require.Len(t, conn.Edges, 2)
	assert.Equal(t, 3, conn.Edges[0].Node)
	assert.Equal(t, 4, conn.Edges[1].Node)
	assert.True(t, conn.PageInfo.HasPreviousPage)
	assert.Equal(t, 6, conn.Total)
}

func TestConnectionNoArgsReturnsAll(t *testing.T) {
	list := intList(4)
	conn, err := connectionFromFetcher(pageArgsFrom(map[string]interface{}{}), 4, fetchFromList(list))
	require.NoError(t, err)
	assert.Len(t, conn.Edges, 4)
	assert.False(t, conn.PageInfo.HasNextPage)
	assert.False(t, conn.PageInfo.HasPreviousPage)
	assert.Equal(t, offsetToCursor(0), conn.PageInfo.StartCursor)
	assert.Equal(t, offsetToCursor(3), conn.PageInfo.EndCursor)
}

func TestConnectionEmpty(t *testing.T) {
	conn, err := connectionFromFetcher(pageArgsFrom(map[string]interface{}{"first": 5}), 0, fetchFromList(nil))
	require.NoError(t, err)
	assert.Empty(t, conn.Edges)
	assert.Equal(t, 0, conn.Total)
	assert.Empty(t, conn.PageInfo.StartCursor)
}

func TestConnectionTypeMemo(t *testing.T) {
	types := newConnectionTypes()
	b := newBuilder(&Schema{})
	b.buildAuxTypes()
	first := types.forNode(b.plugin, nil)
	second := types.forNode(b.plugin, nil)
	assert.Same(t, first, second)
	assert.Equal(t, "PluginConnection", first.Name())
}
