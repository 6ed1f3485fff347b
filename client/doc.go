/*
Package client provides transport-agnostic logic to retrieve randomness from
a beacon node and verify it before handing it out.

A Session wraps a drand.Source, such as the HTTP client of
https://pkg.go.dev/github.com/drand/go-verifier/client/http, and a
verify.Verifier. It never returns a beacon that did not verify against the
distributed key of the group.

WARNING: Use the "WithDistKey" option to pin the distributed key you trust.
Without it the key is fetched from the source itself, which then vouches for
its own beacons.

In an application that uses the session, the following options are likely
to be needed/customized:

	WithCacheSize()
		should be set to something sensible for your application.

	WithClock()
		drives Watch, mostly useful in tests.

	WithPrometheus()
		enables metrics reporting on requests and verifications to a
		provided prometheus registry.
*/
package client
