// Package ttl implements a generic, thread-safe, in-memory key/value store whose entries become logically absent once
// they are older than the store's TTL.
//
// Expiration Policy (read-time check + Reaper):
// Every entry remembers when it was inserted. Get compares the entry's age against the TTL, so a stale entry is never
// returned even if it is still physically in the map. A background goroutine, the "reaper", wakes up on a fixed
// interval (independent of the TTL), scans the whole map and deletes every entry whose age reached the TTL. This keeps
// memory bounded for keys that are written once and never read again.
//
// Tie-break: an entry whose age is exactly the TTL is still returned by Get, but is removed by the reaper.
//
// Lifecycle: the reaper stops when the context given to New is cancelled, when Close is called, or when the Store
// handle becomes unreachable and is garbage collected. The reaper only references the store's inner state, never the
// handle itself, so dropping the last handle is enough to stop background work.
//
//	users := ttl.New[string, *User](ctx, 5*time.Minute, ttl.WithName("users"))
//	defer users.Close()
//
//	users.Insert("u:42", user)
//	if u, found := users.Get("u:42"); found {
//		// u is a copy when *User implements ttl.Cloner[*User].
//	}
package ttl
