// Package identsdk is a Go client for the ident service HTTP API.
//
// The SDKClient covers the unauthenticated surface: registration, email
// verification, password recovery and the health endpoints. A successful
// Login returns a Session that holds the issued token pair and refreshes
// it transparently when the access token nears expiry.
//
// Basic usage:
//
//	client := identsdk.NewSDKClient("https://ident.example.com")
//
//	if err := client.Register(ctx, identsdk.RegisterRequest{
//		Email:     "ada@example.com",
//		Password:  "Sup3r$ecret",
//		FirstName: "Ada",
//		LastName:  "Lovelace",
//	}); err != nil {
//		return err
//	}
//
//	// After the user follows the verification link:
//	session, err := client.Login(ctx, "ada@example.com", "Sup3r$ecret")
//	if err != nil {
//		return err
//	}
//	defer session.Logout(ctx)
//
//	token, err := session.AccessToken(ctx) // refreshed as needed
//
// API errors are returned as *APIError carrying the HTTP status code and the
// server's message, so callers can branch on status without string matching.
package identsdk
