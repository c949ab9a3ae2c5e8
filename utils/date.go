package utils

import "time"

// JakartaTZ is the fallback company timezone for containers shipped without
// tzdata. WIB has no daylight saving, so a fixed offset is exact.
var JakartaTZ = time.FixedZone("WIB", 7*60*60)
