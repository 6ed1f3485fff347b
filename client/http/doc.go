/*
Package http provides a beacon data source that uses the JSON HTTP API of a
beacon node.

The client fetches the latest beacon from /api/public, a given round from
/api/public/{round}, the distributed key from /api/info/distkey and the group
description from /api/info/group. It never verifies what it fetches: wrap it
in a client.Session for that.

The "ForIdentities" helper creates multiple HTTP clients from a list of node
identities. Alternatively you can use the "New" constructor to create a
single client.
*/
package http
