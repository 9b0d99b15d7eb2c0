package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"srisai/internal/model"
	"srisai/internal/repo"
	"srisai/internal/storage"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingNotifier struct {
	got []model.Booking
	err error
}

func (n *recordingNotifier) BookingCreated(_ context.Context, b model.Booking) error {
	n.got = append(n.got, b)
	return n.err
}

type fixture struct {
	svc      *service
	repo     repo.Repository
	notifier *recordingNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := zerolog.Nop()
	r, err := repo.NewRepository(storage.NewMemory(), &log)
	require.NoError(t, err)

	n := &recordingNotifier{}
	svc := NewService(r, &log, n, Display{Location: time.UTC, Layout: DefaultTimeLayout}).(*service)
	clock := &fakeClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	svc.ids = NewIDGenerator((&fakeClock{t: clock.t}).Now)
	return fixture{svc: svc, repo: r, notifier: n}
}

func validForm(i int) model.BookingForm {
	return model.BookingForm{
		Name:      fmt.Sprintf("Guest %d", i),
		Phone:     fmt.Sprintf("98450%05d", i),
		Email:     fmt.Sprintf("guest%d@example.com", i),
		EventType: "Wedding",
		Date:      "2024-05-01",
		Guests:    model.Guests(fmt.Sprint(100 + i)),
		Notes:     "veg only",
	}
}

func TestSubmitBookingExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.SubmitBooking(ctx, model.BookingForm{Name: "A", Phone: "123", Date: "2024-01-01", Guests: "4"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, res.ResetForm)
	assert.Equal(t, MsgSubmitted, res.Message)
	assert.Equal(t, 6*time.Second, res.ClearAfter)

	records, err := f.repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	b := records[0]
	assert.Equal(t, "A", b.Name)
	assert.Equal(t, "123", b.Phone)
	assert.Equal(t, "2024-01-01", b.Date)
	assert.Equal(t, model.Guests("4"), b.Guests)
	assert.True(t, strings.HasPrefix(b.ID, "bk_"))
	assert.Equal(t, "2024-03-10T09:00:01.000Z", b.CreatedAt)

	exp, err := f.svc.ExportCSV(ctx)
	require.NoError(t, err)
	assert.Len(t, strings.Split(string(exp.Body), "\n"), 2)
}

func TestSubmitBookingsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 5

	for i := 0; i < n; i++ {
		res, err := f.svc.SubmitBooking(ctx, validForm(i))
		require.NoError(t, err)
		require.True(t, res.OK)
	}

	records, err := f.repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, n)
	seen := map[string]bool{}
	for i, b := range records {
		want := validForm(n - 1 - i)
		assert.Equal(t, want.Name, b.Name)
		assert.Equal(t, want.Phone, b.Phone)
		assert.Equal(t, want.Date, b.Date)
		assert.Equal(t, want.Guests, b.Guests)
		assert.False(t, seen[b.ID], "duplicate id %s", b.ID)
		seen[b.ID] = true
	}
	assert.Len(t, f.notifier.got, n)
}

func TestSubmitBookingTrimsFields(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.SubmitBooking(context.Background(), model.BookingForm{
		Name: "  Ravi ", Phone: " 123 ", Date: " 2024-01-01", Guests: " 40 ", Notes: "  none  ",
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, "Ravi", res.Booking.Name)
	assert.Equal(t, model.Guests("40"), res.Booking.Guests)
	assert.Equal(t, "none", res.Booking.Notes)
}

func TestSubmitBookingMissingRequiredLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	blank := []func(*model.BookingForm){
		func(f *model.BookingForm) { f.Name = "   " },
		func(f *model.BookingForm) { f.Phone = "" },
		func(f *model.BookingForm) { f.Date = "" },
		func(f *model.BookingForm) { f.Guests = " " },
	}

	for i, blankOut := range blank {
		f := newFixture(t)
		_, err := f.svc.SubmitBooking(ctx, validForm(100))
		require.NoError(t, err)
		before, _ := f.repo.Load(ctx)

		form := validForm(i)
		blankOut(&form)
		res, err := f.svc.SubmitBooking(ctx, form)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.False(t, res.ResetForm)
		assert.Equal(t, MsgRequiredFields, res.Message)

		after, _ := f.repo.Load(ctx)
		assert.Equal(t, before, after)
		assert.Len(t, f.notifier.got, 1)
	}
}

func TestSubmitBookingRejectsMalformedDate(t *testing.T) {
	f := newFixture(t)
	form := validForm(1)
	form.Date = "12/31/2024"
	res, err := f.svc.SubmitBooking(context.Background(), form)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, MsgInvalidDate, res.Message)

	records, _ := f.repo.Load(context.Background())
	assert.Empty(t, records)
}

func TestSubmitBookingMissingFieldOutranksBadDate(t *testing.T) {
	f := newFixture(t)
	form := validForm(1)
	form.Date = "tomorrow"
	form.Guests = ""
	res, err := f.svc.SubmitBooking(context.Background(), form)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, MsgRequiredFields, res.Message)

	records, _ := f.repo.Load(context.Background())
	assert.Empty(t, records)
}

// overlappingRepo holds each Load until a second Load arrives or the wait
// runs out, so unserialised writers would both read the same snapshot.
type overlappingRepo struct {
	repo.Repository
	wait time.Duration

	mu    sync.Mutex
	loads int
	both  chan struct{}
}

func (r *overlappingRepo) Load(ctx context.Context) ([]model.Booking, error) {
	r.mu.Lock()
	r.loads++
	if r.loads == 2 {
		close(r.both)
	}
	r.mu.Unlock()

	select {
	case <-r.both:
	case <-time.After(r.wait):
	}
	return r.Repository.Load(ctx)
}

func TestSubmitBookingConcurrentWritersKeepEveryRecord(t *testing.T) {
	log := zerolog.Nop()
	inner, err := repo.NewRepository(storage.NewMemory(), &log)
	require.NoError(t, err)
	gated := &overlappingRepo{Repository: inner, wait: 200 * time.Millisecond, both: make(chan struct{})}
	svc := NewService(gated, &log, nil, Display{Location: time.UTC})

	var wg sync.WaitGroup
	results := make([]Result, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.SubmitBooking(context.Background(), validForm(i))
		}()
	}
	wg.Wait()

	for i := range 2 {
		require.NoError(t, errs[i])
		assert.True(t, results[i].OK)
	}
	records, err := inner.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestSubmitBookingNotifierFailureStillStores(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	res, err := f.svc.SubmitBooking(context.Background(), validForm(1))
	require.NoError(t, err)
	assert.True(t, res.OK)

	records, _ := f.repo.Load(context.Background())
	assert.Len(t, records, 1)
}

func TestRenderEmptyStoreShowsPlaceholder(t *testing.T) {
	f := newFixture(t)
	table, err := f.svc.RenderBookings(context.Background())
	require.NoError(t, err)
	assert.True(t, table.Empty)
	assert.Empty(t, table.Rows)
	assert.Equal(t, placeholderRow, table.HTML())
	assert.Equal(t, 1, strings.Count(table.HTML(), "<tr>"))
}

func TestRenderEscapesEveryField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.SaveAll(ctx, []model.Booking{
		{
			ID:        "bk_<2>",
			Name:      `<script>alert("x")</script>`,
			Phone:     "1&2",
			Email:     "a=b@c",
			EventType: "`x`",
			Date:      "2024-01-01",
			Guests:    "'4'",
			Notes:     "a/b",
			CreatedAt: "2024-01-02T15:04:05.000Z",
		},
		{ID: "bk_1", Name: "Plain", CreatedAt: "garbage"},
	}))

	table, err := f.svc.RenderBookings(ctx)
	require.NoError(t, err)
	require.False(t, table.Empty)
	require.Len(t, table.Rows, 2)

	row := table.Rows[0]
	assert.Equal(t, "bk_&lt;2&gt;", row.ID)
	assert.Equal(t, "&lt;script&gt;alert(&quot;x&quot;)&lt;&#x2F;script&gt;", row.Name)
	assert.Equal(t, "1&amp;2", row.Phone)
	assert.Equal(t, "a&#x3D;b@c", row.Email)
	assert.Equal(t, "&#x60;x&#x60;", row.EventType)
	assert.Equal(t, "&#39;4&#39;", row.Guests)
	assert.Equal(t, "a&#x2F;b", row.Notes)
	assert.Equal(t, "1&#x2F;2&#x2F;2024, 3:04:05 PM", row.CreatedAt)

	assert.Equal(t, "Plain", table.Rows[1].Name)
	assert.Equal(t, invalidDate, table.Rows[1].CreatedAt)

	html := table.HTML()
	assert.Equal(t, 2, strings.Count(html, "<tr>"))
	assert.NotContains(t, html, "<script>")
	assert.Less(t, strings.Index(html, "bk_&lt;2&gt;"), strings.Index(html, "Plain"))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&#39;&#x60;&#x3D;&#x2F;", EscapeHTML("&<>\"'`=/"))
	assert.Equal(t, "", EscapeHTML(""))
	assert.Equal(t, "&amp;amp;", EscapeHTML("&amp;"))
}

func TestExportCSVEmptyStore(t *testing.T) {
	f := newFixture(t)
	exp, err := f.svc.ExportCSV(context.Background())
	assert.Nil(t, exp)
	assert.ErrorIs(t, err, ErrNothingToExport)

	_, err = f.svc.ExportXLSX(context.Background())
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExportCSVRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := []model.Booking{
		{ID: "bk_3", Name: `Ann "The Host"`, Phone: "1,2,3", Email: "", EventType: "Birthday", Date: "2024-02-02", Guests: "12", Notes: "line one\nline two", CreatedAt: "2024-01-03T00:00:00.000Z"},
		{ID: "bk_2", Name: "Bo", Phone: "555", Email: "bo@example.com", EventType: "", Date: "2024-02-01", Guests: "3", Notes: "", CreatedAt: "2024-01-02T00:00:00.000Z"},
		{ID: "bk_1", Name: "Cy", Phone: "777", Date: "2024-01-31", Guests: "50", CreatedAt: "2024-01-01T00:00:00.000Z"},
	}
	require.NoError(t, f.repo.SaveAll(ctx, stored))

	exp, err := f.svc.ExportCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, CSVContentType, exp.ContentType)
	assert.Regexp(t, `^srisai_bookings_\d{4}-\d{2}-\d{2}\.csv$`, exp.Filename)
	assert.Equal(t, "srisai_bookings_2024-03-10.csv", exp.Filename)
	assert.True(t, strings.HasPrefix(string(exp.Body), "id,name,phone,email,eventType,date,guests,notes,createdAt\n"))
	assert.False(t, strings.HasSuffix(string(exp.Body), "\n"))

	rows, err := csv.NewReader(bytes.NewReader(exp.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(stored)+1)
	assert.Equal(t, model.Columns, rows[0])
	for i, b := range stored {
		assert.Equal(t, b.Values(), rows[i+1])
	}
}

func TestEncodeCSVQuotesEveryField(t *testing.T) {
	body := EncodeCSV([]model.Booking{{ID: "bk_1", Name: `say "hi"`}})
	assert.Equal(t,
		"id,name,phone,email,eventType,date,guests,notes,createdAt\n"+
			`"bk_1","say ""hi""","","","","","","",""`,
		string(body))
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := []model.Booking{
		{ID: "bk_2", Name: "Bo", Phone: "555", Date: "2024-02-01", Guests: "3", CreatedAt: "2024-01-02T00:00:00.000Z"},
		{ID: "bk_1", Name: "Cy", Phone: "777", Date: "2024-01-31", Guests: "50", CreatedAt: "2024-01-01T00:00:00.000Z"},
	}
	require.NoError(t, f.repo.SaveAll(ctx, stored))

	exp, err := f.svc.ExportXLSX(ctx)
	require.NoError(t, err)
	assert.Equal(t, "srisai_bookings_2024-03-10.xlsx", exp.Filename)
	assert.Equal(t, XLSXContentType, exp.ContentType)

	book, err := excelize.OpenReader(bytes.NewReader(exp.Body))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.Columns, rows[0])
	assert.Equal(t, "bk_2", rows[1][0])
	assert.Equal(t, "Cy", rows[2][1])
	assert.Equal(t, "50", rows[2][6])

	for _, cell := range []string{"A1", "I1"} {
		idx, err := book.GetCellStyle(xlsxSheet, cell)
		require.NoError(t, err)
		style, err := book.GetStyle(idx)
		require.NoError(t, err)
		require.NotNil(t, style.Font, cell)
		assert.True(t, style.Font.Bold, cell)
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()

	t.Run("declined", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 3; i++ {
			_, err := f.svc.SubmitBooking(ctx, validForm(i))
			require.NoError(t, err)
		}
		var prompt string
		cleared, _, err := f.svc.ClearAll(ctx, func(p string) bool { prompt = p; return false })
		require.NoError(t, err)
		assert.False(t, cleared)
		assert.Equal(t, ClearPrompt, prompt)

		records, _ := f.repo.Load(ctx)
		assert.Len(t, records, 3)
	})

	t.Run("no confirmation", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SubmitBooking(ctx, validForm(1))
		require.NoError(t, err)
		cleared, _, err := f.svc.ClearAll(ctx, nil)
		require.NoError(t, err)
		assert.False(t, cleared)
		records, _ := f.repo.Load(ctx)
		assert.Len(t, records, 1)
	})

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 4; i++ {
			_, err := f.svc.SubmitBooking(ctx, validForm(i))
			require.NoError(t, err)
		}
		cleared, table, err := f.svc.ClearAll(ctx, func(string) bool { return true })
		require.NoError(t, err)
		assert.True(t, cleared)
		assert.True(t, table.Empty)

		records, _ := f.repo.Load(ctx)
		assert.Empty(t, records)
	})

	t.Run("confirmed on empty store", func(t *testing.T) {
		f := newFixture(t)
		cleared, table, err := f.svc.ClearAll(ctx, func(string) bool { return true })
		require.NoError(t, err)
		assert.True(t, cleared)
		assert.True(t, table.Empty)
	})
}

func TestIDGeneratorMonotonicWithinTick(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := NewIDGenerator(func() time.Time { return fixed })
	assert.Equal(t, "bk_1700000000000", g.Next())
	assert.Equal(t, "bk_1700000000001", g.Next())
	assert.Equal(t, "bk_1700000000002", g.Next())
}
