// Package cookie sets, reads and clears HTTP cookies with shared defaults.
//
// Values are stored as given. Anything that needs integrity, such as the
// session token, is signed before it reaches the cookie.
//
//	man := cookie.New(cookie.WithSecure(true))
//	man.Set(w, "__session", token, cookie.WithMaxAge(int(ttl.Seconds())))
//	token, err := man.Get(r, "__session")
//	man.Delete(w, "__session")
package cookie
