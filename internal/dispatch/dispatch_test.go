package dispatch_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KaramelBytes/areamail-cli/internal/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft(title string) dispatch.Draft {
	return dispatch.Draft{
		Group:    "JUMLAH DATA AREA " + title,
		Title:    title,
		From:     "crm@example.com",
		To:       []string{"west@example.com"},
		Cc:       []string{"boss@example.com"},
		Subject:  "[CRM DATA MINING INFO] - DISTRIBUSI DATA " + title,
		HTMLBody: "<html><body><p>" + title + "</p></body></html>",
	}
}

func TestCompose_HeadersAndBody(t *testing.T) {
	raw, err := dispatch.Compose(sampleDraft("WEST"))
	require.NoError(t, err)

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "<crm@example.com>", msg.Header.Get("From"))
	assert.Equal(t, "<west@example.com>", msg.Header.Get("To"))
	assert.Equal(t, "<boss@example.com>", msg.Header.Get("Cc"))
	assert.Equal(t, "[CRM DATA MINING INFO] - DISTRIBUSI DATA WEST", msg.Header.Get("Subject"))
	assert.Contains(t, msg.Header.Get("Content-Type"), "text/html")

	body, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(mustRead(t, msg)), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "<html><body><p>WEST</p></body></html>", string(body))
}

func TestCompose_Deterministic(t *testing.T) {
	d := sampleDraft("WEST")
	d.HTMLBody = strings.Repeat("<td>x</td>", 200)
	a, err := dispatch.Compose(d)
	require.NoError(t, err)
	b, err := dispatch.Compose(d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	for _, line := range strings.Split(string(a), "\r\n") {
		assert.LessOrEqual(t, len(line), 998)
	}
}

func TestCompose_EncodesNonASCIISubject(t *testing.T) {
	d := sampleDraft("SULAWESI")
	d.Subject = "Distribusi Daerah Istimewa Yogyakarta é"
	raw, err := dispatch.Compose(d)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Subject: =?utf-8?q?")
}

func TestCompose_RejectsMissingOrInvalidRecipients(t *testing.T) {
	d := sampleDraft("WEST")
	d.To = nil
	_, err := dispatch.Compose(d)
	assert.Error(t, err)

	d = sampleDraft("WEST")
	d.Cc = []string{"not an address"}
	_, err = dispatch.Compose(d)
	assert.Error(t, err)
}

func TestRunner_FailureDoesNotStopOtherGroups(t *testing.T) {
	var calls int32
	d := dispatch.DrafterFunc(func(_ context.Context, dr dispatch.Draft) (string, error) {
		atomic.AddInt32(&calls, 1)
		if dr.Title == "EAST" {
			return "", errors.New("boom")
		}
		return "id-" + dr.Title, nil
	})
	drafts := []dispatch.Draft{sampleDraft("WEST"), sampleDraft("EAST"), sampleDraft("NORTH")}

	res := dispatch.NewRunner(d).Run(context.Background(), drafts)

	require.Len(t, res, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.True(t, res[0].OK())
	assert.Equal(t, "id-WEST", res[0].Ref)
	assert.False(t, res[1].OK())
	assert.Equal(t, "EAST", res[1].Title)
	assert.True(t, res[2].OK())
	assert.Equal(t, 1, dispatch.Failed(res))
}

func TestRunner_BoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	d := dispatch.DrafterFunc(func(_ context.Context, dr dispatch.Draft) (string, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return dr.Title, nil
	})
	var drafts []dispatch.Draft
	for _, n := range []string{"A", "B", "C", "D", "E", "F"} {
		drafts = append(drafts, sampleDraft(n))
	}

	res := dispatch.NewRunner(d, dispatch.WithConcurrency(2)).Run(context.Background(), drafts)

	assert.Zero(t, dispatch.Failed(res))
	assert.LessOrEqual(t, peak, 2)
	for i, r := range res {
		assert.Equal(t, drafts[i].Title, r.Ref, "results keep input order")
	}
}

func TestRunner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := dispatch.DrafterFunc(func(context.Context, dispatch.Draft) (string, error) {
		t.Error("drafter must not be called")
		return "", nil
	})
	res := dispatch.NewRunner(d).Run(ctx, []dispatch.Draft{sampleDraft("WEST")})
	assert.ErrorIs(t, res[0].Err, context.Canceled)
}

func TestDirDrafter_WritesUniqueFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drafts")
	dd, err := dispatch.NewDirDrafter(dir)
	require.NoError(t, err)

	p1, err := dd.CreateDraft(context.Background(), sampleDraft("JAWA BARAT"))
	require.NoError(t, err)
	p2, err := dd.CreateDraft(context.Background(), sampleDraft("JAWA BARAT"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "jawa-barat.eml"), p1)
	assert.Equal(t, filepath.Join(dir, "jawa-barat__2.eml"), p2)
	b, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Subject: [CRM DATA MINING INFO] - DISTRIBUSI DATA JAWA BARAT")
}

func TestFileBase(t *testing.T) {
	assert.Equal(t, "west", dispatch.FileBase("WEST"))
	assert.Equal(t, "group", dispatch.FileBase("!!!"))
}

func mustRead(t *testing.T, msg *mail.Message) []byte {
	t.Helper()
	b, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	return b
}
