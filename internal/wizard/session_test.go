package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/clausecode/internal/application"
	"github.com/bryanwahyu/clausecode/internal/client"
	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/document"
	"github.com/bryanwahyu/clausecode/internal/infra/ai/prompt"
	"github.com/bryanwahyu/clausecode/internal/render"
)

type fakeBackend struct {
	mu sync.Mutex

	result     analysis.Result
	analyzeErr error
	alts       []analysis.Alternative
	altsErr    error
	answer     string
	askErr     error

	gotDoc         document.Document
	gotInstruction string
	gotOpts        client.AnalyzeOptions
	gotService     string
	gotQuestion    string
	gotHistory     []analysis.Turn
	gotPrior       analysis.Result
	gotSave        client.SaveRequest
}

func (f *fakeBackend) RunAnalysis(_ context.Context, doc document.Document, instruction string, opts client.AnalyzeOptions) (analysis.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotDoc, f.gotInstruction, f.gotOpts = doc, instruction, opts
	return f.result, f.analyzeErr
}

func (f *fakeBackend) SearchAlternatives(_ context.Context, serviceName string) ([]analysis.Alternative, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotService = serviceName
	return f.alts, f.altsErr
}

func (f *fakeBackend) AskFollowUp(_ context.Context, question string, _ document.Document, prior analysis.Result, history []analysis.Turn) (string, error) {
	f.gotQuestion, f.gotPrior, f.gotHistory = question, prior, history
	return f.answer, f.askErr
}

func (f *fakeBackend) Upload(_ context.Context, filename string, r io.Reader) (document.Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return document.Document{}, err
	}
	return document.Document{Text: string(b), Title: filename, Source: document.SourceUpload}, nil
}

func (f *fakeBackend) ScrapeURL(_ context.Context, rawURL string) (document.Document, error) {
	if strings.Contains(rawURL, "blocked") {
		return document.Document{}, &client.Error{Status: http.StatusBadRequest, Message: "Access forbidden"}
	}
	return document.Document{Text: "scraped terms", Title: "Terms", URL: "https://" + rawURL, Source: document.SourceScrape}, nil
}

func (f *fakeBackend) Save(_ context.Context, req client.SaveRequest) (client.SaveResult, error) {
	f.gotSave = req
	return client.SaveResult{ID: "rec-1", SavedTo: []string{"mysql"}}, nil
}

func readySession(t *testing.T, b Backend, p analysis.Persona, typ analysis.Type) *Session {
	t.Helper()
	s := NewSession(NewNavigator(LayoutCompact), b, nil, application.FixedClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)), nil, Config{})
	s.Paste("Sample terms text")
	s.Navigator().SelectPersona(p)
	s.Navigator().SelectType(typ)
	return s
}

func TestAnalyzeCommitsResult(t *testing.T) {
	b := &fakeBackend{result: analysis.Result{Text: "<p>ok</p>"}}
	s := readySession(t, b, analysis.PersonaLawyer, analysis.TypeSummary)
	s.Navigator().SelectLanguage("French")

	res, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", res.Text)

	want, _ := prompt.Resolve(analysis.PersonaLawyer, analysis.TypeSummary, "", "French")
	assert.Equal(t, want, b.gotInstruction)
	assert.Equal(t, "Sample terms text", b.gotDoc.Text)
	assert.Equal(t, client.AnalyzeOptions{Agent: analysis.PersonaLawyer, AnalysisType: analysis.TypeSummary}, b.gotOpts)

	n := s.Navigator()
	assert.Equal(t, StepResults, n.State().Step)
	require.NotNil(t, n.Result())
	assert.Equal(t, "<p>ok</p>", n.Result().Text)
	assert.False(t, n.Analyzing())
	assert.Empty(t, n.Status())
}

func TestAnalyzeTruncatesDocument(t *testing.T) {
	b := &fakeBackend{result: analysis.Result{Text: "ok"}}
	s := NewSession(NewNavigator(LayoutCompact), b, nil, nil, nil, Config{MaxChars: 5})
	s.Paste("0123456789")
	s.Navigator().SelectPersona(analysis.PersonaBob)
	s.Navigator().SelectType(analysis.TypeSummary)

	_, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "01234", b.gotDoc.Text)
	assert.Equal(t, "0123456789", s.Navigator().Document().Text)
}

func TestAnalyzeValidation(t *testing.T) {
	s := NewSession(NewNavigator(LayoutCompact), &fakeBackend{}, nil, nil, nil, Config{})
	_, err := s.Analyze(context.Background())
	assert.ErrorIs(t, err, analysis.ErrMissingDocument)
	assert.Equal(t, "❌ Please upload a file, fetch a URL, or paste text first.", s.Navigator().Status())
	assert.False(t, s.Navigator().Analyzing())
}

func TestAnalyzeFailureLeavesWizardUsable(t *testing.T) {
	b := &fakeBackend{analyzeErr: &client.Error{Status: 400, Message: "OpenAI API key not configured"}}
	s := readySession(t, b, analysis.PersonaBob, analysis.TypeSummary)

	_, err := s.Analyze(context.Background())
	var cerr *client.Error
	require.True(t, errors.As(err, &cerr))

	n := s.Navigator()
	assert.Equal(t, StepResults, n.State().Step)
	assert.Nil(t, n.Result())
	assert.Equal(t, err, n.ResultErr())
	assert.Equal(t, "❌ OpenAI API key not configured.", n.Status())
	assert.True(t, n.CanAnalyze(), "retry is possible")

	b.analyzeErr = nil
	b.result = analysis.Result{Text: "ok"}
	_, err = s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Nil(t, n.ResultErr())
}

func TestOneAnalysisInFlight(t *testing.T) {
	s := readySession(t, &fakeBackend{result: analysis.Result{Text: "ok"}}, analysis.PersonaBob, analysis.TypeSummary)

	req, err := s.BeginAnalysis()
	require.NoError(t, err)
	assert.True(t, s.Navigator().Analyzing())
	assert.False(t, s.Navigator().CanAnalyze())
	assert.Equal(t, AnalyzingStatus, s.Navigator().Status())

	_, err = s.BeginAnalysis()
	assert.ErrorIs(t, err, ErrAnalysisInFlight)

	res, err := s.ExecuteAnalysis(context.Background(), req)
	assert.True(t, s.CompleteAnalysis(req, res, err))
	assert.True(t, s.Navigator().CanAnalyze())
}

func TestStaleAnalysisIsDiscarded(t *testing.T) {
	s := readySession(t, &fakeBackend{result: analysis.Result{Text: "ok"}}, analysis.PersonaBob, analysis.TypeSummary)

	req, err := s.BeginAnalysis()
	require.NoError(t, err)
	s.Navigator().SelectPersona(analysis.PersonaCEO)

	res, err := s.ExecuteAnalysis(context.Background(), req)
	assert.False(t, s.CompleteAnalysis(req, res, err))
	assert.Nil(t, s.Navigator().Result())
	assert.False(t, s.Navigator().Analyzing())
	assert.Empty(t, s.Navigator().Status())
}

func TestAlternativesJoin(t *testing.T) {
	b := &fakeBackend{
		result: analysis.Result{Text: "primary"},
		alts:   []analysis.Alternative{{Title: "Tidal", Link: "https://tidal.com"}},
	}
	s := readySession(t, b, analysis.PersonaRegular, analysis.TypeAlternatives)
	s.Navigator().SetDocument(document.Document{Text: "terms", URL: "https://www.spotify.com/legal"})

	res, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Spotify", b.gotService)
	assert.Equal(t, "primary", res.Text)
	assert.Equal(t, b.alts, res.Alternatives)
}

func TestAlternativesAreSavedAndAskedAbout(t *testing.T) {
	b := &fakeBackend{
		result: analysis.Result{Text: "primary"},
		alts:   []analysis.Alternative{{Title: "Tidal", Link: "https://tidal.com", Snippet: "hifi"}},
		answer: "Tidal",
	}
	s := readySession(t, b, analysis.PersonaRegular, analysis.TypeAlternatives)
	_, err := s.Analyze(context.Background())
	require.NoError(t, err)

	req, err := s.BeginSave()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(req.ResultText, "primary\n\n"+analysis.AlternativesHeading), req.ResultText)
	assert.Contains(t, req.ResultText, "1. Tidal\n   hifi\n   https://tidal.com")

	_, err = s.Ask(context.Background(), "Which one is cheaper?")
	require.NoError(t, err)
	assert.Equal(t, req.ResultText, b.gotPrior.PlainText())
}

func TestAlternativesSecondaryFailureDegrades(t *testing.T) {
	b := &fakeBackend{result: analysis.Result{Text: "primary"}, altsErr: errors.New("serpapi down")}
	s := readySession(t, b, analysis.PersonaRegular, analysis.TypeAlternatives)

	res, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Text)
	assert.Empty(t, res.Alternatives)
	assert.NotContains(t, render.Render(res), "alternatives-section")
}

func TestAlternativesPrimaryFailureFails(t *testing.T) {
	b := &fakeBackend{analyzeErr: &client.Error{Message: "boom"}, alts: []analysis.Alternative{{Title: "x"}}}
	s := readySession(t, b, analysis.PersonaRegular, analysis.TypeAlternatives)

	_, err := s.Analyze(context.Background())
	require.Error(t, err)
	assert.Nil(t, s.Navigator().Result())
}

func TestAskCommitsTurns(t *testing.T) {
	b := &fakeBackend{result: analysis.Result{Text: "<p>ok</p>"}, answer: "<p>yes</p>"}
	s := readySession(t, b, analysis.PersonaLawyer, analysis.TypeSummary)
	s.Navigator().SelectLanguage("Spanish")

	_, err := s.Ask(context.Background(), "can they sell data?")
	assert.ErrorIs(t, err, analysis.ErrNoAnalysis)

	_, err = s.Analyze(context.Background())
	require.NoError(t, err)

	_, err = s.Ask(context.Background(), "  ")
	assert.ErrorIs(t, err, analysis.ErrMissingQuestion)
	assert.Equal(t, "❌ Please enter a question.", s.Navigator().Status())

	answer, err := s.Ask(context.Background(), "can they sell data?")
	require.NoError(t, err)
	assert.Equal(t, "<p>yes</p>", answer)
	assert.Equal(t, "can they sell data?\n\nIMPORTANT: You MUST respond entirely in Spanish.", b.gotQuestion)
	assert.Empty(t, b.gotHistory)

	_, err = s.Ask(context.Background(), "and refunds?")
	require.NoError(t, err)
	assert.Equal(t, []analysis.Turn{
		{Role: analysis.RoleUser, Content: "can they sell data?"},
		{Role: analysis.RoleAssistant, Content: "<p>yes</p>"},
	}, b.gotHistory)
	assert.Equal(t, 4, s.Navigator().Conversation().Len())

	// a new analysis starts a new conversation
	_, err = s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.Navigator().Conversation().Len())
}

func TestAskFailureKeepsConversation(t *testing.T) {
	b := &fakeBackend{result: analysis.Result{Text: "ok"}, askErr: &client.Error{Message: "Question is required"}}
	s := readySession(t, b, analysis.PersonaLawyer, analysis.TypeSummary)
	_, err := s.Analyze(context.Background())
	require.NoError(t, err)

	_, err = s.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.Zero(t, s.Navigator().Conversation().Len())
	assert.False(t, s.Navigator().Asking())
	assert.Equal(t, "❌ Question is required.", s.Navigator().Status())
}

func TestQuestionInFlight(t *testing.T) {
	b := &fakeBackend{result: analysis.Result{Text: "ok"}, answer: "a"}
	s := readySession(t, b, analysis.PersonaLawyer, analysis.TypeSummary)
	_, err := s.Analyze(context.Background())
	require.NoError(t, err)

	req, err := s.BeginQuestion("q1")
	require.NoError(t, err)
	_, err = s.BeginQuestion("q2")
	assert.ErrorIs(t, err, ErrQuestionInFlight)
	assert.True(t, s.CompleteQuestion(req, "a", nil))
}

func TestLoadDocuments(t *testing.T) {
	s := NewSession(NewNavigator(LayoutCompact), &fakeBackend{}, nil, nil, nil, Config{})
	ctx := context.Background()

	require.NoError(t, s.LoadURL(ctx, "united.com/terms"))
	assert.Equal(t, document.SourceScrape, s.Navigator().Document().Source)

	err := s.LoadURL(ctx, "blocked.com")
	require.Error(t, err)
	assert.Equal(t, "❌ Scraping failed: Access forbidden", s.Navigator().Status())
	assert.Equal(t, "scraped terms", s.Navigator().Document().Text, "failed fetch keeps the old document")

	require.Error(t, s.LoadURL(ctx, " "))

	require.NoError(t, s.LoadFile(ctx, "terms.pdf", strings.NewReader("pdf text")))
	assert.Equal(t, "pdf text", s.Navigator().Document().Text)
}

func TestSave(t *testing.T) {
	b := &fakeBackend{result: analysis.Result{Text: "<p>ok</p>"}}
	s := readySession(t, b, analysis.PersonaLawyer, analysis.TypeSummary)

	_, err := s.Save(context.Background())
	assert.ErrorIs(t, err, ErrNothingToSave)

	_, err = s.Analyze(context.Background())
	require.NoError(t, err)
	out, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rec-1", string(out.ID))
	assert.Equal(t, client.SaveRequest{
		Timestamp:    "2025-03-01T12:00:00Z",
		Agent:        "Lawyer",
		AnalysisType: "summary",
		Language:     "English",
		PageTitle:    "Document Analysis",
		ResultText:   "<p>ok</p>",
		PageContent:  "Sample terms text",
	}, b.gotSave)
	assert.Equal(t, "✅ Saved successfully!", s.Navigator().Status())
}

// End to end against a stub backend speaking the real HTTP contract.
func TestEndToEndLawyerSummary(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"result":"<p>ok</p>"}`)
	}))
	defer srv.Close()

	s := NewSession(NewNavigator(LayoutCompact), client.New(srv.URL, nil), nil, nil, nil, Config{})
	n := s.Navigator()
	s.Paste("Sample terms text")
	require.True(t, n.Next())
	n.SelectPersona(analysis.PersonaLawyer)
	require.True(t, n.Next())
	n.SelectType(analysis.TypeSummary)
	require.True(t, n.Next())
	require.True(t, n.CanAnalyze())

	res, err := s.Analyze(context.Background())
	require.NoError(t, err)

	want, ok := prompt.Lookup(analysis.PersonaLawyer, analysis.TypeSummary)
	require.True(t, ok)
	assert.Equal(t, want, body["systemPrompt"])
	assert.Equal(t, "Sample terms text", body["pageText"])
	assert.Equal(t, `<div class="analysis-content"><p>ok</p></div>`, render.Render(res))
	assert.Equal(t, "📊 Lawyer - Summary", n.State().Selections.Title())
}

func TestEndToEndAlternativesSecondaryRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/analyze":
			_, _ = io.WriteString(w, `{"result":"<p>try these</p>"}`)
		case "/search-alternatives":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"SerpAPI key not configured in .env"}`)
		}
	}))
	defer srv.Close()

	s := NewSession(NewNavigator(LayoutWide), client.New(srv.URL, nil), nil, nil, nil, Config{})
	s.Paste("Sample terms text")
	s.Navigator().SelectPersona(analysis.PersonaRegular)
	s.Navigator().SelectType(analysis.TypeAlternatives)

	res, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `<div class="analysis-content"><p>try these</p></div>`, render.Render(res))
}

func TestCompleteLoadFailureKeepsDocument(t *testing.T) {
	s := readySession(t, &fakeBackend{}, analysis.PersonaBob, analysis.TypeSummary)

	s.CompleteLoad(document.Document{}, "Upload failed", errors.New("Could not extract text from document"))
	assert.Equal(t, "❌ Upload failed: Could not extract text from document", s.Navigator().Status())
	assert.Equal(t, "Sample terms text", s.Navigator().Document().Text)
	assert.Equal(t, analysis.PersonaBob, s.Navigator().State().Selections.Persona)
}
