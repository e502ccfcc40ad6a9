package agent

import "hash/fnv"

// PersonaFor picks a consultant name for a customer. The same customer
// always gets the same name, so the conversation never changes attendant
// between messages.
func PersonaFor(customerKey string, pool []string) string {
	if len(pool) == 0 {
		return "Ana"
	}
	h := fnv.New32a()
	h.Write([]byte(customerKey))
	return pool[h.Sum32()%uint32(len(pool))]
}
