/*
Package authsdk keeps a banking client's session: it decides whether the
stored credential authenticates the user and with which role, attaches it to
API calls, and refreshes or discards it when it stops working.

# Overview

State lives in a CredentialStore over any kv.Store (memory, sqlite, redis).
On top of it sit:

  - Guard: authentication and role checks, login and logout
  - Refresher: exchanges the refresh credential after a 401, once for all
    concurrent callers
  - Transport: an http.RoundTripper that attaches the credential and retries
    once after a refresh
  - Navigator: redirect decisions for protected pages
  - SDKClient: the JSON client for the banking API endpoints

Wiring them up:

	store := authsdk.NewCredentialStore(kv.NewMemory())
	api := authsdk.NewSDKClient("http://localhost:4000/api")

	guard := authsdk.NewGuard(store, api)
	refresher := authsdk.NewRefresher(store, api)
	authed := api.WithTransport(authsdk.NewTransport(guard, refresher, nil))

	role, err := guard.Login(ctx, "alice", "secret", true)
	if err != nil {
		fmt.Println(authsdk.UserMessage(err))
		return
	}

	profile, err := authed.Profile(ctx)

# Credential checks

Every check re-reads the store and decodes the credential again; nothing is
cached. A credential that does not decode, or whose expiry has passed, is
removed from the store by the check that finds it.

Roles are ordered: super_admin satisfies admin, admin satisfies user.

# Refresh

When the API answers 401, Transport asks the Refresher for a new access
credential. Concurrent 401s share a single call to the refresh endpoint.
Callers that come in after that call finished reuse its result: the new
credential on success, the same error on failure. A failed refresh always
clears the session.

# Error Handling

Errors are matched with errors.Is against the sentinels in errors.go. API
responses are returned as *APIError, which unwraps to the sentinel for its
status. UserMessage maps any of them to text fit for display.

# Thread Safety

Guard, Refresher, CredentialStore and Transport are safe for concurrent use.
*/
package authsdk
