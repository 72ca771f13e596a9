/*
Package hashring implements consistent hashing ring with virtual nodes.

Consistent hashing maps objects from a very big set of values (e.g. cache
keys) onto a quite small and changing set of physical nodes (e.g. shard
addresses). Adding or removing one of N nodes moves only about 1/N of keys,
unlike modulo hashing which moves nearly all of them.

Every physical node is placed on the ring as a batch of virtual nodes. The
position of i-th virtual node of a node is a 64-bit xxhash digest of
"<node id>:<i>". If position is already taken, the input is salted as
"<node id>:<i>:<salt>" with salt starting from 1. This scheme is identified by
SaltScheme; changing it changes positions of all virtual nodes and breaks
compatibility of rings built by different processes.

There are two goals for this implementation:
1) Lookups never block. Ring keeps its points in an immutable AVL tree, so
every membership change builds a new Snapshot sharing most of the structure
with the previous one and publishes it atomically. Readers holding an older
snapshot keep working against stale but consistent data.
2) Membership changes tell the caller exactly which key ranges changed their
owner, so data can be migrated before the old owner drops it.
*/
package hashring
