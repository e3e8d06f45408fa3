package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeEngine_RecordsCallsInOrder(t *testing.T) {
	ctx := context.Background()
	engine := NewFakeEngine()

	b, err := engine.Launch(ctx, LaunchOptions{Headless: true})
	require.NoError(t, err)
	page, err := b.NewPage(ctx)
	require.NoError(t, err)

	require.NoError(t, page.Goto(ctx, "http://app.test/login", 0))
	require.NoError(t, page.SetLocalStorage(ctx, "token", "abc"))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	assert.Equal(t, []string{
		"launch headless=true",
		"new_page",
		"goto http://app.test/login",
		"storage token",
		"close",
	}, engine.Calls())
	assert.Equal(t, 1, engine.Closed)
}

func TestFakePage_LocalStorageNeedsOrigin(t *testing.T) {
	ctx := context.Background()
	engine := NewFakeEngine()
	b, err := engine.Launch(ctx, LaunchOptions{})
	require.NoError(t, err)
	page, err := b.NewPage(ctx)
	require.NoError(t, err)

	assert.Error(t, page.SetLocalStorage(ctx, "token", "abc"))

	require.NoError(t, page.Goto(ctx, "http://app.test/login", 0))
	require.NoError(t, page.SetLocalStorage(ctx, "token", "abc"))

	fp := engine.Pages()[0]
	fp.SetURL("http://app.test/admin")
	assert.Equal(t, "abc", fp.LocalStorage()["token"])
}

func TestFakeElement_Visibility(t *testing.T) {
	ctx := context.Background()
	engine := NewFakeEngine()
	engine.Visible = func(p *FakePage, loc Locator) bool { return loc.Text == "Roadmap" }

	b, err := engine.Launch(ctx, LaunchOptions{})
	require.NoError(t, err)
	page, err := b.NewPage(ctx)
	require.NoError(t, err)

	shown, err := page.Locate(Locator{Text: "Roadmap"})
	require.NoError(t, err)
	assert.NoError(t, shown.WaitFor(ctx, StateVisible, 0))
	assert.ErrorIs(t, shown.WaitFor(ctx, StateHidden, 0), ErrTimeout)

	missing, err := page.Locate(Locator{Text: "Pricing"})
	require.NoError(t, err)
	assert.ErrorIs(t, missing.WaitFor(ctx, StateVisible, 0), ErrTimeout)
	_, err = missing.Screenshot(ctx, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = page.Locate(Locator{})
	assert.ErrorIs(t, err, ErrInvalidLocator)
}

func TestFakePage_ClosedBrowser(t *testing.T) {
	ctx := context.Background()
	engine := NewFakeEngine()
	b, err := engine.Launch(ctx, LaunchOptions{})
	require.NoError(t, err)
	page, err := b.NewPage(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = page.Screenshot(ctx, true)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = b.NewPage(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
