package client_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trophykit/client"
	"trophykit/core"
	"trophykit/credstore/memory"
	"trophykit/sign"
	"trophykit/transport"
)

const (
	testGameID  = 555
	testKey     = "abc"
	testUser    = "pablito"
	testToken   = "xyz"
	testUserID  = 77
	friendOneID = 101
	friendTwoID = 102
)

// fakeAPI emulates the remote service closely enough for end-to-end client
// tests: session state, a score table, trophies, and a friend roster.
type fakeAPI struct {
	mu sync.Mutex

	sessionOpen bool
	scores      []core.Score
	achieved    map[int]bool
	brokenUsers map[int]bool // user ids whose profile fetch fails

	scoreAdds   int
	trophyAdds  int
	trophyCuts  int
	requestURLs []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		achieved:    map[int]bool{},
		brokenUsers: map[int]bool{},
	}
}

func (f *fakeAPI) authorized(q map[string][]string) bool {
	get := func(k string) string {
		if v, ok := q[k]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return get("username") == testUser && get("user_token") == testToken
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestURLs = append(f.requestURLs, r.URL.String())

	q := r.URL.Query()
	ok := func(extra string) {
		fmt.Fprintf(w, `{"response":{"success":"true"%s}}`, extra)
	}
	fail := func(msg string) {
		fmt.Fprintf(w, `{"response":{"success":"false","message":%q}}`, msg)
	}

	switch r.URL.Path {
	case "/users/auth/":
		if f.authorized(q) {
			ok("")
		} else {
			fail("invalid login credentials")
		}

	case "/users/":
		profile := core.UserProfile{ID: testUserID, Username: testUser, AvatarURL: "https://cdn.example/avatars/20/9999.jpg"}
		if idStr := q.Get("user_id"); idStr != "" {
			id, _ := strconv.Atoi(idStr)
			if f.brokenUsers[id] {
				fail("no such user")
				return
			}
			profile = core.UserProfile{ID: id, Username: fmt.Sprintf("friend%d", id)}
		} else if name := q.Get("username"); name != "" && name != testUser {
			profile = core.UserProfile{ID: 1, Username: name}
		}
		b, _ := json.Marshal([]core.UserProfile{profile})
		ok(`,"users":` + string(b))

	case "/sessions/open/":
		if !f.authorized(q) {
			fail("invalid login credentials")
			return
		}
		f.sessionOpen = true
		ok("")

	case "/sessions/check/":
		if f.sessionOpen && f.authorized(q) {
			ok("")
		} else {
			fail("no open session")
		}

	case "/sessions/ping/":
		if f.sessionOpen {
			ok("")
		} else {
			fail("no open session")
		}

	case "/sessions/close/":
		f.sessionOpen = false
		ok("")

	case "/scores/":
		rows := f.scores
		if q.Get("username") != "" {
			own := make([]core.Score, 0, len(rows))
			for _, s := range rows {
				if s.User == testUser {
					own = append(own, s)
				}
			}
			rows = own
		}
		b, _ := json.Marshal(rows)
		ok(`,"scores":` + string(b))

	case "/scores/add/":
		f.scoreAdds++
		sort, _ := strconv.Atoi(q.Get("sort"))
		row := core.Score{Score: q.Get("score"), Sort: sort, ExtraData: q.Get("extra_data")}
		if guest := q.Get("guest"); guest != "" {
			row.Guest = guest
		} else {
			row.User = q.Get("username")
		}
		f.scores = append(f.scores, row)
		ok("")

	case "/scores/get-rank/":
		ok(`,"rank":4`)

	case "/trophies/":
		var list []core.Trophy
		filter := q.Get("achieved")
		for id, unlocked := range f.achieved {
			if filter == "true" && !unlocked || filter == "false" && unlocked {
				continue
			}
			tr := core.Trophy{ID: id, Title: fmt.Sprintf("trophy %d", id)}
			if unlocked {
				tr.Achieved = core.Achievement{Unlocked: true, Elapsed: "2 days ago"}
			}
			list = append(list, tr)
		}
		b, _ := json.Marshal(list)
		ok(`,"trophies":` + string(b))

	case "/trophies/add-achieved/":
		f.trophyAdds++
		id, _ := strconv.Atoi(q.Get("trophy_id"))
		f.achieved[id] = true
		ok("")

	case "/trophies/remove-achieved/":
		f.trophyCuts++
		id, _ := strconv.Atoi(q.Get("trophy_id"))
		f.achieved[id] = false
		ok("")

	case "/friends/":
		ok(fmt.Sprintf(`,"friends":[{"friend_id":%d},{"friend_id":%d}]`, friendOneID, friendTwoID))

	default:
		fail("unknown endpoint " + r.URL.Path)
	}
}

type recordingAvatars struct {
	mu   sync.Mutex
	urls map[int]string
}

func (r *recordingAvatars) Request(_ context.Context, userID int, avatarURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.urls == nil {
		r.urls = map[int]string{}
	}
	r.urls[userID] = avatarURL
}

func newTestClient(t *testing.T, api *fakeAPI) (*client.Client, *memory.Store, *recordingAvatars) {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	signer := sign.New(server.URL, core.GameIdentity{ID: testGameID, PrivateKey: testKey}, sign.AlgoMD5)
	store := memory.New()
	avatars := &recordingAvatars{}
	c := client.New(signer, transport.New(server.Client(), nil), store, avatars, nil, slog.Default())
	return c, store, avatars
}

func storeCredentials(t *testing.T, store *memory.Store) {
	t.Helper()
	err := store.Write(context.Background(), testGameID, &core.Credentials{Username: testUser, Token: testToken})
	require.NoError(t, err)
}

func TestCheckSessionRemoteNoIsFalseWithoutError(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	logged, err := c.CheckSession(context.Background())
	require.NoError(t, err)
	assert.False(t, logged)
}

func TestCheckSessionWithoutCredentialsIsFalseWithoutError(t *testing.T) {
	api := newFakeAPI()
	c, _, _ := newTestClient(t, api)

	logged, err := c.CheckSession(context.Background())
	require.NoError(t, err)
	assert.False(t, logged)
	assert.Empty(t, api.requestURLs, "a refused request must not reach the network")
}

func TestBootstrapOpensSessionAndFetchesProfile(t *testing.T) {
	api := newFakeAPI()
	c, store, avatars := newTestClient(t, api)
	storeCredentials(t, store)

	require.NoError(t, c.Bootstrap(context.Background()))

	logged, err := c.CheckSession(context.Background())
	require.NoError(t, err)
	assert.True(t, logged)
	assert.Contains(t, avatars.urls, testUserID)
}

func TestBootstrapIsNoOpWhenAlreadyLoggedIn(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	require.NoError(t, c.Bootstrap(context.Background()))
	opens := countRequests(api, "/sessions/open/")
	require.NoError(t, c.Bootstrap(context.Background()))
	assert.Equal(t, opens, countRequests(api, "/sessions/open/"), "second bootstrap must not reopen the session")
}

func TestBootstrapWipesRejectedCredentials(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	err := store.Write(context.Background(), testGameID, &core.Credentials{Username: testUser, Token: "stale"})
	require.NoError(t, err)

	err = c.Bootstrap(context.Background())
	require.ErrorIs(t, err, core.ErrAuth)

	creds, err := store.Read(context.Background(), testGameID)
	require.NoError(t, err)
	assert.Nil(t, creds, "rejected credentials must be wiped")
}

func TestSetUserInfoRollsBackOnAuthFailure(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	err := c.SetUserInfo(context.Background(), "impostor", "wrong")
	require.ErrorIs(t, err, core.ErrAuth)

	creds, err := store.Read(context.Background(), testGameID)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, testUser, creds.Username, "previous pair must be restored")
	assert.Equal(t, testToken, creds.Token)
}

func TestSetUserInfoEmptyPairClears(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	require.NoError(t, c.SetUserInfo(context.Background(), "", ""))

	creds, err := store.Read(context.Background(), testGameID)
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestSetUserInfoAcceptsValidPair(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)

	require.NoError(t, c.SetUserInfo(context.Background(), testUser, testToken))

	creds, err := store.Read(context.Background(), testGameID)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, testUser, creds.Username)
}

func TestSubmitScoreRequiresSession(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	_, err := c.SubmitScore(context.Background(), 0, "500 jumps", 500, "")
	require.ErrorIs(t, err, core.ErrNotLogged)
	assert.Zero(t, api.scoreAdds)
}

func TestSubmitScoreEchoesSubmittedRow(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)
	require.NoError(t, c.Bootstrap(context.Background()))

	echo, err := c.SubmitScore(context.Background(), 0, "500 jumps", 500, "level 3")
	require.NoError(t, err)
	assert.Equal(t, "500 jumps", echo.Score)
	assert.Equal(t, 500, echo.Sort)
	assert.Equal(t, "level 3", echo.ExtraData)
	assert.Equal(t, testUser, echo.User)
	assert.Equal(t, 1, api.scoreAdds)

	// the submitted value travels %20-escaped, never +-escaped
	var addURL string
	for _, u := range api.requestURLs {
		if strings.HasPrefix(u, "/scores/add/") {
			addURL = u
		}
	}
	require.NotEmpty(t, addURL)
	assert.Contains(t, addURL, "score=500%20jumps")
	assert.NotContains(t, addURL, "+")
	assert.Contains(t, addURL, "&signature=")
}

func TestSubmitGuestScoreNeedsNoSession(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	echo, err := c.SubmitGuestScore(context.Background(), 0, "visitor", "12", 12, "")
	require.NoError(t, err)
	assert.Equal(t, "visitor", echo.Guest)
	assert.Equal(t, 1, api.scoreAdds)
}

func TestFetchScoresOmitsDefaultLimit(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	_, err := c.FetchScores(context.Background(), client.ScoreQuery{Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, api.requestURLs)
	assert.NotContains(t, api.requestURLs[len(api.requestURLs)-1], "limit=")

	_, err = c.FetchScores(context.Background(), client.ScoreQuery{Limit: 250})
	require.NoError(t, err)
	assert.Contains(t, api.requestURLs[len(api.requestURLs)-1], "limit=100")
}

func TestFetchScoresDelimiterMapsToRangeParam(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	better := 40
	_, err := c.FetchScores(context.Background(), client.ScoreQuery{Delimiter: &better})
	require.NoError(t, err)
	assert.Contains(t, api.requestURLs[len(api.requestURLs)-1], "better_than=40")

	worse := -40
	_, err = c.FetchScores(context.Background(), client.ScoreQuery{Delimiter: &worse})
	require.NoError(t, err)
	last := api.requestURLs[len(api.requestURLs)-1]
	assert.Contains(t, last, "worse_than=40")
	assert.NotContains(t, last, "better_than")
}

func TestGlobalRank(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	assert.Equal(t, -1, c.GlobalRank(context.Background(), 0), "not logged in yields the sentinel")

	require.NoError(t, c.Bootstrap(context.Background()))
	assert.Equal(t, -1, c.GlobalRank(context.Background(), 0), "no own score yields the sentinel")

	_, err := c.SubmitScore(context.Background(), 0, "500 jumps", 500, "")
	require.NoError(t, err)
	assert.Equal(t, 4, c.GlobalRank(context.Background(), 0))
}

func TestAchieveTrophyIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	api.achieved[12] = false
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)
	require.NoError(t, c.Bootstrap(context.Background()))

	res, err := c.AchieveTrophy(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, client.TrophyUpdated, res)

	res, err = c.AchieveTrophy(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, client.TrophyUnchanged, res)
	assert.Equal(t, 1, api.trophyAdds, "second call must not write again")
}

func TestRevokeTrophyAlreadyLockedIsUnchanged(t *testing.T) {
	api := newFakeAPI()
	api.achieved[12] = false
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)
	require.NoError(t, c.Bootstrap(context.Background()))

	res, err := c.RevokeTrophy(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, client.TrophyUnchanged, res)
	assert.Zero(t, api.trophyCuts)
}

func TestAchieveUnknownTrophyFails(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)
	require.NoError(t, c.Bootstrap(context.Background()))

	_, err := c.AchieveTrophy(context.Background(), 999)
	require.Error(t, err)
	assert.Zero(t, api.trophyAdds)
}

func TestFetchTrophiesFilter(t *testing.T) {
	api := newFakeAPI()
	api.achieved[1] = true
	api.achieved[2] = false
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)
	require.NoError(t, c.Bootstrap(context.Background()))

	achieved, err := c.FetchTrophies(context.Background(), client.TrophyAchieved)
	require.NoError(t, err)
	require.Len(t, achieved, 1)
	assert.True(t, achieved[0].Achieved.Unlocked)
	assert.Equal(t, "2 days ago", achieved[0].Achieved.Elapsed)

	all, err := c.FetchTrophies(context.Background(), client.TrophyAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFriendsPartialSuccess(t *testing.T) {
	api := newFakeAPI()
	api.brokenUsers[friendTwoID] = true
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)
	require.NoError(t, c.Bootstrap(context.Background()))

	friends, err := c.Friends(context.Background())
	require.NoError(t, err)
	require.Len(t, friends, 1, "the broken friend is skipped, not fatal")
	assert.Equal(t, friendOneID, friends[0].ID)
}

func TestLogoutClosesSession(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)
	require.NoError(t, c.Bootstrap(context.Background()))

	require.NoError(t, c.Logout(context.Background()))
	logged, err := c.CheckSession(context.Background())
	require.NoError(t, err)
	assert.False(t, logged)
}

func TestPingSessionRequiresOpenSession(t *testing.T) {
	api := newFakeAPI()
	c, store, _ := newTestClient(t, api)
	storeCredentials(t, store)

	err := c.PingSession(context.Background())
	require.ErrorIs(t, err, core.ErrNotLogged)

	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.PingSession(context.Background()))
}

func TestFetchProfileByUsername(t *testing.T) {
	api := newFakeAPI()
	c, store, avatars := newTestClient(t, api)
	storeCredentials(t, store)

	profile, err := c.FetchProfile(context.Background(), "  "+testUser+"  ")
	require.NoError(t, err)
	assert.Equal(t, testUser, profile.Username)
	assert.Contains(t, avatars.urls, profile.ID)

	_, err = c.FetchProfile(context.Background(), "   ")
	require.Error(t, err)
}

func countRequests(api *fakeAPI, path string) int {
	api.mu.Lock()
	defer api.mu.Unlock()
	n := 0
	for _, u := range api.requestURLs {
		if strings.HasPrefix(u, path) {
			n++
		}
	}
	return n
}
