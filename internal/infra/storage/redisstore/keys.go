package redisstore

// Key layout. Everything lives under one prefix so a shared Redis can host
// unrelated tenants.
const (
	keyCursor = "btco:indexer:cursor"
	keyClaims = "btco:indexer:claims" // hash: workerID -> claim JSON

	// Legacy per-worker claim keys, rewritten into keyClaims on connect.
	legacyClaimPattern = "btco:indexer:claim:*"

	keySeen           = "btco:resources:seen"
	keyOrdinalsIdx    = "btco:resources:ordinals"
	keyNonOrdinalsIdx = "btco:resources:non-ordinals"
	keyResourcePrefix = "btco:resource:" // + inscription ID

	keyErrorsIndex = "btco:errors:index"

	keyStatOrdinals    = "btco:stats:ordinals:total"
	keyStatSubtypes    = "btco:stats:ordinals:by_subtype" // hash
	keyStatNonOrdinals = "btco:stats:non-ordinals:total"
	keyStatErrors      = "btco:stats:errors:total"
)

// maxErrorIndex caps the retained error sample.
const maxErrorIndex = 1000
