package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/perceval/leaderboard/internal/adapters/http/api"
	"github.com/perceval/leaderboard/internal/adapters/repository"
	service "github.com/perceval/leaderboard/internal/app"
	"github.com/perceval/leaderboard/internal/config"
	"github.com/perceval/leaderboard/internal/domain/model"
	"github.com/perceval/leaderboard/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

const basePath = "/lelec2103"

// fakeDeps implements api.Dependencies with canned data. Keys map to groups;
// submissions are kept in a plain map per group ID.
type fakeDeps struct {
	groups      map[string]model.Group
	submissions map[string]model.Submission
	contest     *config.Contest
	snapshot    standings.Snapshot
	standings   []model.ScoreEntry
	failWith    error
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		groups:      make(map[string]model.Group),
		submissions: make(map[string]model.Submission),
		contest:     config.DefaultContest(),
	}
}

func (f *fakeDeps) addGroup(name, key string, admin bool) model.Group {
	g := model.Group{ID: "id-" + name, Name: name, Key: key, Admin: admin}
	f.groups[key] = g
	return g
}

func (f *fakeDeps) Authenticate(_ context.Context, key string) (model.Group, error) {
	g, ok := f.groups[key]
	if !ok {
		return model.Group{}, service.ErrInvalidKey
	}
	return g, nil
}

func (f *fakeDeps) Submit(_ context.Context, g model.Group, guess string) (model.Submission, error) {
	if f.failWith != nil {
		return model.Submission{}, f.failWith
	}
	if !f.contest.Allowed(guess) {
		return model.Submission{}, service.ErrBadGuess
	}
	if _, ok := f.submissions[g.ID]; ok {
		return model.Submission{}, repository.ErrConflict
	}
	sub := model.Submission{ID: "sub-" + g.ID, GroupID: g.ID, Guess: guess, UpdatedAt: time.Now()}
	f.submissions[g.ID] = sub
	return sub, nil
}

func (f *fakeDeps) Update(_ context.Context, g model.Group, guess string) (model.Submission, error) {
	if !f.contest.Allowed(guess) {
		return model.Submission{}, service.ErrBadGuess
	}
	sub, ok := f.submissions[g.ID]
	if !ok {
		return model.Submission{}, repository.ErrNotFound
	}
	sub.Guess = guess
	f.submissions[g.ID] = sub
	return sub, nil
}

func (f *fakeDeps) Get(_ context.Context, g model.Group) (model.Submission, error) {
	sub, ok := f.submissions[g.ID]
	if !ok {
		return model.Submission{}, repository.ErrNotFound
	}
	return sub, nil
}

func (f *fakeDeps) Delete(_ context.Context, g model.Group) error {
	if _, ok := f.submissions[g.ID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.submissions, g.ID)
	return nil
}

func (f *fakeDeps) Standings(_ context.Context) ([]model.ScoreEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.standings, nil
}

func (f *fakeDeps) Snapshot() standings.Snapshot { return f.snapshot }

func (f *fakeDeps) Contest() *config.Contest { return f.contest }

// fakeStats implements api.StatsProvider.
type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *fakeDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(basePath, deps, fakeStats{}).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func doRequest(t *testing.T, method, url string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestSubmissionEndpoints(t *testing.T) {
	Convey("Given an API server with one registered group", t, func() {
		deps := newFakeDeps()
		deps.addGroup("team-red", "key-red", false)
		srv := newTestServer(deps)
		defer srv.Close()

		submitURL := srv.URL + basePath + "/leaderboard/submit/"

		Convey("When posting with an unknown key", func() {
			resp, body := doRequest(t, http.MethodPost, submitURL+"bogus/fire")

			Convey("Then the response should be 401 invalid_key", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
				So(body["status"], ShouldEqual, "error")
				So(body["code"], ShouldEqual, "invalid_key")
			})
		})

		Convey("When posting a first valid guess", func() {
			resp, body := doRequest(t, http.MethodPost, submitURL+"key-red/fire")

			Convey("Then the response should be 201 created", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["status"], ShouldEqual, "created")
				So(body["group"], ShouldEqual, "team-red")

				sub := body["submission"].(map[string]any)
				So(sub["guess"], ShouldEqual, "fire")
			})

			Convey("And a second post should be 409 conflict", func() {
				resp, body := doRequest(t, http.MethodPost, submitURL+"key-red/birds")
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "conflict")
			})

			Convey("And a patch should change the guess", func() {
				resp, body := doRequest(t, http.MethodPatch, submitURL+"key-red/birds")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "updated")

				sub := body["submission"].(map[string]any)
				So(sub["guess"], ShouldEqual, "birds")
			})

			Convey("And a get should return the current guess", func() {
				resp, body := doRequest(t, http.MethodGet, submitURL+"key-red")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "ok")
			})

			Convey("And a delete should remove it", func() {
				resp, body := doRequest(t, http.MethodDelete, submitURL+"key-red")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "deleted")

				resp, body = doRequest(t, http.MethodGet, submitURL+"key-red")
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When posting a guess outside the allowed set", func() {
			resp, body := doRequest(t, http.MethodPost, submitURL+"key-red/submarine")

			Convey("Then the response should be 400 bad_guess", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_guess")
			})
		})

		Convey("When patching before any submission exists", func() {
			resp, body := doRequest(t, http.MethodPatch, submitURL+"key-red/fire")

			Convey("Then the response should be 404 not_found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.failWith = errors.New("database exploded")
			resp, body := doRequest(t, http.MethodPost, submitURL+"key-red/fire")

			Convey("Then the response should be a generic 500", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
				So(body["code"], ShouldEqual, "internal_error")
				So(body["message"], ShouldNotContainSubstring, "exploded")
			})
		})
	})
}

func TestStandingsEndpoint(t *testing.T) {
	Convey("Given an API server with cached and fresh standings", t, func() {
		deps := newFakeDeps()
		deps.snapshot = standings.Snapshot{
			Entries:     []model.ScoreEntry{{Rank: 1, Group: "cached"}},
			RefreshedAt: time.Now(),
		}
		deps.standings = []model.ScoreEntry{{Rank: 1, Group: "fresh"}}
		srv := newTestServer(deps)
		defer srv.Close()

		url := srv.URL + basePath + "/leaderboard/standings"

		Convey("When fetching standings without parameters", func() {
			resp, body := doRequest(t, http.MethodGet, url)

			Convey("Then the cached snapshot should be served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				entries := body["standings"].([]any)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].(map[string]any)["group"], ShouldEqual, "cached")
				So(body["refreshed_at"], ShouldNotBeNil)
			})
		})

		Convey("When fetching standings with fresh=1", func() {
			resp, body := doRequest(t, http.MethodGet, url+"?fresh=1")

			Convey("Then standings should be recomputed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				entries := body["standings"].([]any)
				So(entries[0].(map[string]any)["group"], ShouldEqual, "fresh")
			})
		})

		Convey("When there are no standings at all", func() {
			deps.snapshot = standings.Snapshot{}
			resp, body := doRequest(t, http.MethodGet, url)

			Convey("Then the standings field should be an empty array", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				entries, ok := body["standings"].([]any)
				So(ok, ShouldBeTrue)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestStatusEndpoints(t *testing.T) {
	Convey("Given an API server with a member and an admin group", t, func() {
		deps := newFakeDeps()
		deps.addGroup("team-red", "key-red", false)
		deps.addGroup("staff", "key-staff", true)
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When checking a valid member key", func() {
			resp, body := doRequest(t, http.MethodGet, srv.URL+basePath+"/leaderboard/check/key-red")

			Convey("Then the group and admin flag should come back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["group"], ShouldEqual, "team-red")
				So(body["admin"], ShouldEqual, false)
			})
		})

		Convey("When checking an unknown key", func() {
			resp, _ := doRequest(t, http.MethodGet, srv.URL+basePath+"/leaderboard/check/bogus")
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When a member reads the contest status", func() {
			resp, body := doRequest(t, http.MethodGet, srv.URL+basePath+"/leaderboard/status/key-red")

			Convey("Then access should be forbidden", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusForbidden)
				So(body["code"], ShouldEqual, "forbidden")
			})
		})

		Convey("When an admin reads the contest status", func() {
			resp, body := doRequest(t, http.MethodGet, srv.URL+basePath+"/leaderboard/status/key-staff")

			Convey("Then the contest parameters should be exposed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["target"], ShouldEqual, "fire")
				So(body["allowed_guesses"], ShouldHaveLength, 5)
				So(body["max_score"], ShouldEqual, 1.0)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When scraping /healthz", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it should serve metrics", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When fetching /stats", func() {
			resp, body := doRequest(t, http.MethodGet, srv.URL+"/stats")

			Convey("Then service statistics should come back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["started"], ShouldEqual, true)
			})
		})
	})
}
