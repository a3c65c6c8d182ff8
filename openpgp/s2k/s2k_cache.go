package s2k

// Cache stores keys derived by S2K functions from one passphrase, to
// avoid recomputation when multiple packets were protected with the
// same passphrase and S2K parameters (an Iterated-and-Salted
// derivation with a high count is the expensive case this exists
// for). Params is not itself comparable (it carries a salt slice), so
// the cache keys on its serialized wire form instead.
type Cache struct {
	derivedKeyCache map[string][]byte
}

// NewCache creates a new, empty derivation cache.
func NewCache() *Cache {
	return &Cache{derivedKeyCache: make(map[string][]byte)}
}

func (c *Cache) cacheKey(params *Params, expectedKeySize int) string {
	id, _ := hashToID(params.Hash)
	key := make([]byte, 0, len(params.Salt)+8)
	key = append(key, byte(params.Mode), id, byte(expectedKeySize))
	key = append(key, byte(params.Count>>24), byte(params.Count>>16), byte(params.Count>>8), byte(params.Count))
	key = append(key, params.Salt...)
	return string(key)
}

// GetDerivedKeyOrElseCompute returns the cached derived key for the
// given S2K parameters and key size, deriving it from passphrase and
// caching it on a miss. The passphrase is not part of the cache key: a
// hit returns the key derived on the earlier miss, whatever passphrase
// is passed now.
func (c *Cache) GetDerivedKeyOrElseCompute(passphrase []byte, params *Params, expectedKeySize int) ([]byte, error) {
	key := c.cacheKey(params, expectedKeySize)
	if derived, found := c.derivedKeyCache[key]; found {
		return derived, nil
	}
	derived, err := params.Derive(passphrase, expectedKeySize)
	if err != nil {
		return nil, err
	}
	c.derivedKeyCache[key] = derived
	return derived, nil
}

// Reset clears the cache.
func (c *Cache) Reset() {
	c.derivedKeyCache = make(map[string][]byte)
}
