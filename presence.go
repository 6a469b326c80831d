package pusher

// MemberRoster is the presence-channel member set: user_id -> user_info
// JSON, plus the cached id of the local subscriber. Every member_added
// inserts, every member_removed removes, and subscription_succeeded
// replaces the whole roster atomically.
type MemberRoster struct {
	members map[string][]byte
	myID    string
}

func newMemberRoster() *MemberRoster {
	return &MemberRoster{members: make(map[string][]byte)}
}

func (r *MemberRoster) replace(p *presenceHash) {
	members := make(map[string][]byte, len(p.Hash))
	for id, info := range p.Hash {
		members[id] = []byte(info)
	}
	r.members = members
}

func (r *MemberRoster) add(userID string, userInfo []byte) {
	r.members[userID] = userInfo
}

func (r *MemberRoster) remove(userID string) bool {
	if _, ok := r.members[userID]; !ok {
		return false
	}
	delete(r.members, userID)
	return true
}

// Count returns the number of members currently in the roster.
func (r *MemberRoster) Count() int { return len(r.members) }

// Get returns the raw user_info for userID, and whether it is present.
func (r *MemberRoster) Get(userID string) ([]byte, bool) {
	info, ok := r.members[userID]
	return info, ok
}

// Each invokes fn once per member currently in the roster.
func (r *MemberRoster) Each(fn func(userID string, userInfo []byte)) {
	for id, info := range r.members {
		fn(id, info)
	}
}

// Me returns the cached local-user id, if one was set via SetMe.
func (r *MemberRoster) Me() (string, bool) {
	if r.myID == "" {
		return "", false
	}
	return r.myID, true
}

// SetMe caches the local subscriber's user id, derived from the channel_data
// the facade sent when authorizing the subscription.
func (r *MemberRoster) SetMe(userID string) { r.myID = userID }
