package redis

import (
	goredis "github.com/redis/go-redis/v9"
)

// Lua scripts for atomic presence transitions. The counter increment and the
// member-set mutation must land as one unit: a window where the count is 1 but
// the identity is missing from the set (or the reverse) would leak phantom
// members to every reader.

// joinScript increments the per-(room, identity) connection counter and, on the
// 0→1 transition, adds the identity to the room's member set.
// KEYS: [1]=conns key, [2]=members key; ARGV: [1]=identity
var joinScript = goredis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('SADD', KEYS[2], ARGV[1])
end
return n
`)

// leaveScript decrements the counter and, when it reaches zero or below,
// deletes the counter key and removes the identity from the member set, so no
// dangling zero entries remain.
// KEYS: [1]=conns key, [2]=members key; ARGV: [1]=identity
var leaveScript = goredis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
  redis.call('DEL', KEYS[1])
  redis.call('SREM', KEYS[2], ARGV[1])
end
return n
`)
