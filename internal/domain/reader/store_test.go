package reader

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

func TestStoreDispatchPublishes(t *testing.T) {
	store := NewStore(InitialOptions{})

	var calls int
	var last []Field
	cancel := store.Subscribe(func(prev, next State) {
		calls++
		last = Diff(prev, next)
	})

	store.Dispatch(RenderingChanged{IsRendering: false}, FontSizeChanged{FontSize: "14pt"})
	assert.Equal(t, 1, calls)
	assert.ElementsMatch(t, []Field{FieldIsRendering, FieldFontSize}, last)

	// no-op transitions are not published
	store.Dispatch(RenderingChanged{IsRendering: false})
	assert.Equal(t, 1, calls)

	cancel()
	store.Dispatch(FontSizeChanged{FontSize: "18pt"})
	assert.Equal(t, 1, calls)
	assert.Equal(t, types.FontSize("18pt"), store.State().FontSize)
}

func TestStoreSnapshotsAreIndependent(t *testing.T) {
	store := NewStore(InitialOptions{})
	before := store.State()

	store.Dispatch(BookmarkAdded{Bookmark: types.Bookmark{ID: 10}})

	assert.Empty(t, before.Bookmarks)
	b, ok := store.Bookmark(10)
	require.True(t, ok)
	assert.Equal(t, int64(10), b.ID)
}

func TestStoreConcurrentDispatch(t *testing.T) {
	store := NewStore(InitialOptions{})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.Dispatch(BookmarkAdded{Bookmark: types.Bookmark{ID: id}})
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, store.State().Bookmarks, 50)
}
