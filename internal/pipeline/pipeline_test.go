package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailhunt-engine/internal/dedup"
	"mailhunt-engine/internal/domain"
	"mailhunt-engine/internal/mailstore"
	"mailhunt-engine/internal/parse"
)

const digestBody = `<html><body>
<p>New postings for you:</p>
<a href="https://jobs.example.com/postings/1001">Senior Widget Engineer</a>
<a href="https://jobs.example.com/postings/1002">Backend Platform Engineer</a>
<a href="https://jobs.example.com/unsubscribe">Unsubscribe</a>
</body></html>`

type fakeMail struct {
	ids      []mailstore.ID
	msgs     map[mailstore.ID]mailstore.Message
	listErr  error
	fetchErr map[mailstore.ID]error
	onFetch  func(id mailstore.ID)

	mu       sync.Mutex
	archived []mailstore.ID
}

func (f *fakeMail) List(ctx context.Context, q mailstore.Criteria) ([]mailstore.ID, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ids, nil
}

func (f *fakeMail) Fetch(ctx context.Context, id mailstore.ID) (mailstore.Message, error) {
	if f.onFetch != nil {
		f.onFetch(id)
	}
	if err := f.fetchErr[id]; err != nil {
		return mailstore.Message{}, err
	}
	return f.msgs[id], nil
}

func (f *fakeMail) Archive(ctx context.Context, ids []mailstore.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, ids...)
	return nil
}

type fakeJobs struct {
	mu         sync.Mutex
	rows       []domain.IngestCandidate
	failTitles map[string]bool
}

func (f *fakeJobs) Snapshot(ctx context.Context) ([]dedup.Seed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seeds := make([]dedup.Seed, len(f.rows))
	for i, r := range f.rows {
		seeds[i] = dedup.Seed{Title: r.Title, Company: r.Company, URL: r.URL}
	}
	return seeds, nil
}

func (f *fakeJobs) Insert(ctx context.Context, c domain.IngestCandidate) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTitles[c.Title] {
		return 0, errors.New("disk full")
	}
	f.rows = append(f.rows, c)
	return int64(len(f.rows)), nil
}

func digestMail(n int) *fakeMail {
	f := &fakeMail{msgs: map[mailstore.ID]mailstore.Message{}}
	for i := 1; i <= n; i++ {
		id := mailstore.ID(i)
		f.ids = append(f.ids, id)
		f.msgs[id] = mailstore.Message{
			ID:       id,
			From:     "Jobs Digest <digest@jobmail.example>",
			HTMLBody: digestBody,
			Received: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		}
	}
	return f
}

func newRunner(mail MailStore, jobs JobStore) (*Runner, *[]Progress) {
	var reports []Progress
	r := &Runner{
		Mail:     mail,
		Jobs:     jobs,
		Registry: parse.NewRegistry(),
		OnProgress: func(p Progress) {
			reports = append(reports, p)
		},
	}
	return r, &reports
}

func TestRunEndToEnd(t *testing.T) {
	mail := digestMail(1)
	jobs := &fakeJobs{}
	r, reports := newRunner(mail, jobs)

	res, err := r.Run(context.Background(), Request{Archive: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Found)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 1, res.Archived)
	assert.False(t, res.Cancelled)
	assert.Equal(t, mail.ids, mail.archived)

	require.Len(t, jobs.rows, 2)
	assert.Equal(t, "Senior Widget Engineer", jobs.rows[0].Title)
	assert.Equal(t, domain.UnknownCompany, jobs.rows[0].Company)
	assert.Equal(t, "1", jobs.rows[0].EmailID)

	var phases []Phase
	for _, p := range *reports {
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
	}
	assert.Equal(t, []Phase{PhaseListing, PhaseFetching, PhaseParsing,
		PhaseSaving, PhaseArchiving, PhaseDone}, phases)
}

func TestRunSavesZeroOnSecondPass(t *testing.T) {
	jobs := &fakeJobs{}

	r1, _ := newRunner(digestMail(2), jobs)
	res, err := r1.Run(context.Background(), Request{})
	require.NoError(t, err)
	// both messages carry the same two postings
	assert.Equal(t, 2, res.Saved)

	r2, _ := newRunner(digestMail(2), jobs)
	res, err = r2.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Saved)
	assert.Len(t, jobs.rows, 2)
}

func TestRunCancelledMidFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mail := digestMail(12)
	var fetched atomic.Int32
	mail.onFetch = func(mailstore.ID) {
		if fetched.Add(1) == 5 {
			cancel()
		}
	}
	jobs := &fakeJobs{}
	r, _ := newRunner(mail, jobs)

	res, err := r.Run(ctx, Request{})
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 0, res.Saved)
	assert.Empty(t, jobs.rows)
	assert.Less(t, int(fetched.Load()), 12)
}

func TestRunContinuesPastSaveFailure(t *testing.T) {
	jobs := &fakeJobs{failTitles: map[string]bool{"Senior Widget Engineer": true}}
	r, _ := newRunner(digestMail(1), jobs)

	res, err := r.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)
	require.Len(t, jobs.rows, 1)
	assert.Equal(t, "Backend Platform Engineer", jobs.rows[0].Title)
}

func TestRunListFailureIsPhaseTagged(t *testing.T) {
	mail := &fakeMail{listErr: errors.New("imap: connection reset")}
	r, _ := newRunner(mail, &fakeJobs{})

	_, err := r.Run(context.Background(), Request{})
	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseListing, pe.Phase)
	assert.Equal(t, 0, pe.Saved)
}

func TestRunFetchFailureIsPhaseTagged(t *testing.T) {
	mail := digestMail(3)
	mail.fetchErr = map[mailstore.ID]error{2: errors.New("imap: BAD fetch")}
	r, _ := newRunner(mail, &fakeJobs{})

	_, err := r.Run(context.Background(), Request{})
	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseFetching, pe.Phase)
}

func TestRunNoMessages(t *testing.T) {
	mail := &fakeMail{}
	r, reports := newRunner(mail, &fakeJobs{})

	res, err := r.Run(context.Background(), Request{Archive: true})
	require.NoError(t, err)
	assert.Zero(t, res.Found)
	assert.Zero(t, res.Saved)
	assert.Empty(t, mail.archived)
	last := (*reports)[len(*reports)-1]
	assert.Equal(t, PhaseDone, last.Phase)
}
