package presenter

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*Presenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithOptions(&out, &errOut, false), &out, &errOut
}

func TestError(t *testing.T) {
	p, out, errOut := newTestPresenter()

	p.Error(errors.New("boom"), "opening cache")
	assert.Equal(t, "Error: opening cache: boom\n", errOut.String())
	assert.Empty(t, out.String())

	errOut.Reset()
	p.Error(nil, "ignored")
	assert.Empty(t, errOut.String())
}

func TestMessages(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Success("done")
	p.Warning("careful")
	p.Info("plain")
	assert.Equal(t, "✓ done\n! careful\nplain\n", out.String())
}

func TestSection(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Section("Summary")
	assert.Equal(t, "\nSummary\n-------\n", out.String())
}

func TestQuietSuppressesAllButErrors(t *testing.T) {
	p, out, errOut := newTestPresenter()
	p.SetQuiet(true)

	p.Success("done")
	p.Warning("careful")
	p.Info("plain")
	p.Section("Summary")
	assert.Empty(t, out.String())

	p.Error(errors.New("boom"), "")
	assert.Equal(t, "Error: boom\n", errOut.String())
}
