package sync

// Identity translation at the sync boundary. Foreign keys are stored
// as server identities; they are rewritten to public identities on the
// way out (pull) and resolved back on the way in (push). Nothing
// outside this package sees both forms at once.

// translate maps one server identity to its public identity using a
// lookup built by Repository.PublicIDs. A reference that is somehow
// missing from the lookup falls back to the server identity itself,
// which is the public form of a record that never carried a client
// identity.
func translate(pub map[string]string, serverID string) string {
	if p, ok := pub[serverID]; ok {
		return p
	}
	return serverID
}

func translateOpt(pub map[string]string, serverID *string) *string {
	if serverID == nil {
		return nil
	}
	p := translate(pub, *serverID)
	return &p
}
