package constants

// Read cache namespaces
// Pattern: {resource}_{operation}:{canonical json params}
// Every namespace of a resource starts with the resource prefix, so a write to the
// resource drops all of them with one prefix delete.

// ================== RESOURCE PREFIXES ==================

const (
	CACHE_PREFIX_CLIENTS      = "clients_"
	CACHE_PREFIX_CANDIDATES   = "candidates_"
	CACHE_PREFIX_REQUISITIONS = "requisitions_"
	CACHE_PREFIX_ANALYTICS    = "analytics_"
	CACHE_PREFIX_AUTH         = "auth_"
)

// CachePrefixes lists every prefix owned by the read cache
var CachePrefixes = []string{
	CACHE_PREFIX_CLIENTS,
	CACHE_PREFIX_CANDIDATES,
	CACHE_PREFIX_REQUISITIONS,
	CACHE_PREFIX_ANALYTICS,
	CACHE_PREFIX_AUTH,
}

// ================== CLIENTS MODULE ==================

const (
	CACHE_NS_CLIENTS_LIST   = CACHE_PREFIX_CLIENTS + "list"
	CACHE_NS_CLIENTS_DETAIL = CACHE_PREFIX_CLIENTS + "detail"
)

// ================== CANDIDATES MODULE ==================

const (
	CACHE_NS_CANDIDATES_LIST   = CACHE_PREFIX_CANDIDATES + "list"
	CACHE_NS_CANDIDATES_DETAIL = CACHE_PREFIX_CANDIDATES + "detail"
)

// ================== REQUISITIONS MODULE ==================

const (
	CACHE_NS_REQUISITIONS_LIST   = CACHE_PREFIX_REQUISITIONS + "list"
	CACHE_NS_REQUISITIONS_DETAIL = CACHE_PREFIX_REQUISITIONS + "detail"
)

// ================== ANALYTICS MODULE ==================

const (
	CACHE_NS_ANALYTICS_METRICS     = CACHE_PREFIX_ANALYTICS + "metrics"
	CACHE_NS_ANALYTICS_PERFORMANCE = CACHE_PREFIX_ANALYTICS + "hiring_performance"
	CACHE_NS_ANALYTICS_SKILLS      = CACHE_PREFIX_ANALYTICS + "skill_trends"
	CACHE_NS_ANALYTICS_REPORT      = CACHE_PREFIX_ANALYTICS + "performance_report"
)

// ================== AUTH MODULE ==================

const (
	CACHE_NS_AUTH_ME = CACHE_PREFIX_AUTH + "me"
)

// ================== STORAGE KEYS ==================

// Keys outside the read cache. None of them carries a cache prefix.
const (
	STORAGE_KEY_AUTH     = "refactortrack.auth"
	STORAGE_KEY_ACTIVITY = "refactortrack.activity"
	STORAGE_KEY_DEVICE   = "refactortrack.device"
	STORAGE_KEY_MFA      = "refactortrack.mfa"

	// id of the user whose reads fill the cache
	STORAGE_KEY_CACHE_OWNER = "refactortrack.cache_owner"
)
