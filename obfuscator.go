package itemid

// Obfuscator XORs IDs with a key so that exposed identifiers do not reveal
// mint timestamps, counters or machine ids. XOR preserves uniqueness, so an
// obfuscated ID is still a valid ID and round-trips through every codec.
type Obfuscator struct {
	key int64
}

// NewObfuscator creates an obfuscator with the given key.
// Use a random int64 and keep it secret.
func NewObfuscator(key int64) *Obfuscator {
	return &Obfuscator{key: key}
}

// Obfuscate XORs the ID with the key.
func (o *Obfuscator) Obfuscate(id ID) ID {
	return ID(int64(id) ^ o.key)
}

// Deobfuscate reverses obfuscation (XOR is its own inverse).
func (o *Obfuscator) Deobfuscate(id ID) ID {
	return ID(int64(id) ^ o.key)
}
