package test

import (
	"fmt"
	"net/http"
	"testing"
)

func TestPrivateRoomRequestApprovalAndPostingFlow(t *testing.T) {
	app := newInterhubTestApp(t)

	// 1. Create users: a room creator and a visitor who will ask to join
	creator := signupInterhubUser(t, app, "creator")
	visitor := signupInterhubUser(t, app, "visitor")

	// 2. Creator opens a private room
	roomName := uniqueRoomName("networks-study")
	createReq := authReq(t, http.MethodPost, "/api/rooms/", creator.Token, map[string]string{
		"name":        roomName,
		"description": "Weekly revision sessions for the networks module",
		"type":        "private",
	})
	createResp, err := app.Test(createReq, -1)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", createResp.StatusCode)
	}

	var created struct {
		Room struct {
			ID   uint   `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"room"`
	}
	decodeJSON(t, createResp, &created)
	if created.Room.ID == 0 {
		t.Fatalf("room ID missing from create response: %+v", created)
	}
	roomPath := fmt.Sprintf("/api/rooms/%d", created.Room.ID)

	// 3. Visitor is turned away with a denial they can act on
	viewReq := authReq(t, http.MethodGet, roomPath, visitor.Token, nil)
	viewResp, err := app.Test(viewReq, -1)
	if err != nil {
		t.Fatalf("visitor view room: %v", err)
	}
	if viewResp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", viewResp.StatusCode)
	}
	var denied struct {
		Access string `json:"access"`
	}
	decodeJSON(t, viewResp, &denied)
	if denied.Access != "denied" {
		t.Fatalf("expected access=denied, got %q", denied.Access)
	}

	// 4. Visitor requests access, twice; the second request changes nothing
	for i := 0; i < 2; i++ {
		reqResp, err := app.Test(authReq(t, http.MethodPost, roomPath+"/request-access", visitor.Token, nil), -1)
		if err != nil {
			t.Fatalf("request access (attempt %d): %v", i+1, err)
		}
		if reqResp.StatusCode != http.StatusOK {
			t.Fatalf("request access expected 200, got %d", reqResp.StatusCode)
		}
		var requested struct {
			Access string `json:"access"`
		}
		decodeJSON(t, reqResp, &requested)
		if requested.Access != "requested" {
			t.Fatalf("expected access=requested, got %q", requested.Access)
		}
	}

	// 5. Creator sees the pending requester in the room view
	creatorViewResp, err := app.Test(authReq(t, http.MethodGet, roomPath, creator.Token, nil), -1)
	if err != nil {
		t.Fatalf("creator view room: %v", err)
	}
	if creatorViewResp.StatusCode != http.StatusOK {
		t.Fatalf("creator view expected 200, got %d", creatorViewResp.StatusCode)
	}
	var creatorView struct {
		Access     string `json:"access"`
		Requesters []struct {
			ID uint `json:"id"`
		} `json:"requesters"`
	}
	decodeJSON(t, creatorViewResp, &creatorView)
	if creatorView.Access != "granted" {
		t.Fatalf("creator expected granted, got %q", creatorView.Access)
	}
	if len(creatorView.Requesters) != 1 || creatorView.Requesters[0].ID != visitor.ID {
		t.Fatalf("expected visitor %d in requesters, got %+v", visitor.ID, creatorView.Requesters)
	}

	// 6. The visitor cannot approve their own request
	selfAcceptPath := fmt.Sprintf("%s/accept-request/%d", roomPath, visitor.ID)
	selfAcceptResp, err := app.Test(authReq(t, http.MethodPost, selfAcceptPath, visitor.Token, nil), -1)
	if err != nil {
		t.Fatalf("self accept: %v", err)
	}
	if selfAcceptResp.StatusCode != http.StatusForbidden {
		t.Fatalf("self accept expected 403, got %d", selfAcceptResp.StatusCode)
	}
	_ = selfAcceptResp.Body.Close()

	// 7. Creator approves the request
	acceptResp, err := app.Test(authReq(t, http.MethodPost, selfAcceptPath, creator.Token, nil), -1)
	if err != nil {
		t.Fatalf("accept request: %v", err)
	}
	if acceptResp.StatusCode != http.StatusOK {
		t.Fatalf("accept expected 200, got %d", acceptResp.StatusCode)
	}
	var accepted struct {
		Status string `json:"status"`
	}
	decodeJSON(t, acceptResp, &accepted)
	if accepted.Status != "member" {
		t.Fatalf("expected status=member, got %q", accepted.Status)
	}

	// 8. The new member posts into the room
	postResp, err := app.Test(authReq(t, http.MethodPost, roomPath+"/contents", visitor.Token, map[string]string{
		"title":   "Subnet cheat sheet",
		"content": "CIDR notation worked examples for Friday's lab.",
	}), -1)
	if err != nil {
		t.Fatalf("post room content: %v", err)
	}
	if postResp.StatusCode != http.StatusCreated {
		t.Fatalf("post content expected 201, got %d", postResp.StatusCode)
	}
	_ = postResp.Body.Close()

	// 9. Both users now see the room feed with the post and two members
	for _, u := range []authUser{creator, visitor} {
		resp, err := app.Test(authReq(t, http.MethodGet, roomPath, u.Token, nil), -1)
		if err != nil {
			t.Fatalf("member view room: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("member view expected 200, got %d", resp.StatusCode)
		}
		var view struct {
			Access   string `json:"access"`
			Contents []struct {
				Title string `json:"title"`
			} `json:"contents"`
			Members []struct {
				ID uint `json:"id"`
			} `json:"members"`
		}
		decodeJSON(t, resp, &view)
		if view.Access != "granted" {
			t.Fatalf("expected granted for user %d, got %q", u.ID, view.Access)
		}
		if len(view.Contents) != 1 || view.Contents[0].Title != "Subnet cheat sheet" {
			t.Fatalf("expected the posted card, got %+v", view.Contents)
		}
		if len(view.Members) != 2 {
			t.Fatalf("expected 2 members, got %d", len(view.Members))
		}
	}

	// 10. The room post stays out of the global dashboard feed
	dashResp, err := app.Test(authReq(t, http.MethodGet, "/api/dashboard", visitor.Token, nil), -1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dashResp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard expected 200, got %d", dashResp.StatusCode)
	}
	var dash struct {
		Contents []struct {
			Title string `json:"title"`
		} `json:"contents"`
	}
	decodeJSON(t, dashResp, &dash)
	for _, card := range dash.Contents {
		if card.Title == "Subnet cheat sheet" {
			t.Fatalf("room-scoped card leaked into the global feed")
		}
	}
}

func TestDeniedRequesterCanAskAgain(t *testing.T) {
	app := newInterhubTestApp(t)

	creator := signupInterhubUser(t, app, "owner")
	applicant := signupInterhubUser(t, app, "applicant")

	createResp, err := app.Test(authReq(t, http.MethodPost, "/api/rooms/", creator.Token, map[string]string{
		"name": uniqueRoomName("algorithms"),
		"type": "private",
	}), -1)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", createResp.StatusCode)
	}
	var created struct {
		Room struct {
			ID uint `json:"id"`
		} `json:"room"`
	}
	decodeJSON(t, createResp, &created)
	roomPath := fmt.Sprintf("/api/rooms/%d", created.Room.ID)

	// Request, deny, then request again: denial removes the pending row
	// rather than blacklisting the user.
	firstResp, err := app.Test(authReq(t, http.MethodPost, roomPath+"/request-access", applicant.Token, nil), -1)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if firstResp.StatusCode != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", firstResp.StatusCode)
	}
	_ = firstResp.Body.Close()

	denyPath := fmt.Sprintf("%s/deny-request/%d", roomPath, applicant.ID)
	denyResp, err := app.Test(authReq(t, http.MethodPost, denyPath, creator.Token, nil), -1)
	if err != nil {
		t.Fatalf("deny request: %v", err)
	}
	if denyResp.StatusCode != http.StatusOK {
		t.Fatalf("deny expected 200, got %d", denyResp.StatusCode)
	}
	_ = denyResp.Body.Close()

	// Denying again has nothing to act on
	denyAgainResp, err := app.Test(authReq(t, http.MethodPost, denyPath, creator.Token, nil), -1)
	if err != nil {
		t.Fatalf("repeat deny: %v", err)
	}
	if denyAgainResp.StatusCode != http.StatusNotFound {
		t.Fatalf("repeat deny expected 404, got %d", denyAgainResp.StatusCode)
	}
	_ = denyAgainResp.Body.Close()

	retryResp, err := app.Test(authReq(t, http.MethodPost, roomPath+"/request-access", applicant.Token, nil), -1)
	if err != nil {
		t.Fatalf("retry request: %v", err)
	}
	var retried struct {
		Access string `json:"access"`
	}
	decodeJSON(t, retryResp, &retried)
	if retried.Access != "requested" {
		t.Fatalf("expected access=requested after retry, got %q", retried.Access)
	}
}
