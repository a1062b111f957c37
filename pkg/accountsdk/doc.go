/*
Package accountsdk is the Go client for the accounts service.

# Client vs Session

Public endpoints hang off Client; endpoints that need an identity provider
ID token hang off Session, which carries the bearer token:

	client := accountsdk.NewClient("https://accounts.example.com")

	reg, err := client.Register(ctx, accountsdk.RegisterRequest{
		Email:           "alice@example.com",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
		FullName:        "Alice",
		Username:        "alice",
	})

	// With the local identity provider, exchange a password for an ID token.
	signIn, err := client.SignIn(ctx, "alice@example.com", "correct horse")

	session := client.WithBearer(signIn.IDToken)
	login, err := session.Login(ctx)
	if login.TFARequired {
		tfa, err := session.LoginTFA(ctx, code)
	}

# Errors

Every non-success response is returned as *APIError, which carries the HTTP
status, a machine code and per-field detail for validation failures:

	var apiErr *accountsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == accountsdk.CodeUsernameTaken {
		// pick another name
	}

The server writes the same type, so the wire format has a single definition.
*/
package accountsdk
