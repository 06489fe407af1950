// Package sec provides authentication and request authorization for the web
// application.
//
// # Authentication
//
// Users log in with a form post of their login name and password. Credentials
// are validated against bcrypt password hashes stored in the database. A
// successful login establishes a server-side session, referenced by an opaque
// random token carried in a cookie.
//
// IMPORTANT: form credentials and session cookies are sent in the clear unless
// TLS is used. Production deployments should terminate TLS and enable secure
// cookies.
//
// # Components
//
//   - [Authenticator]: Validates credentials against the user store
//   - [Policy]: Maps request paths to access requirements
//   - [Sessions]: Creates, resolves, and destroys sessions over a [SessionStore]
//   - [GetAuthenticatedUser], [SetAuthenticatedUser]: Context accessors for the identity
//   - [HashPassword], [VerifyPassword]: bcrypt password hashing utilities
package sec
