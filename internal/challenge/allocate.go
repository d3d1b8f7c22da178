package challenge

// allocation is the outcome of one bucket-fill pass.
type allocation struct {
	Accepted  []Question
	Counts    BucketCounts
	Shortfall BucketCounts
}

// allocate fills per-difficulty quotas from candidates in their original
// order. Indices in rejected are skipped. A candidate whose bucket is already
// full is dropped; there is no cross-bucket substitution. Each accepted text
// joins seen immediately so a later duplicate inside the same candidate list
// cannot also be accepted.
func allocate(candidates []Question, rejected map[int]struct{}, quota BucketCounts, seen ExactSet) allocation {
	out := allocation{Accepted: make([]Question, 0, quota.Total())}

	for i, q := range candidates {
		if _, skip := rejected[i]; skip {
			continue
		}
		if seen.Has(q.Text) {
			continue
		}
		if out.Counts.Get(q.Difficulty) >= quota.Get(q.Difficulty) {
			continue
		}
		out.Accepted = append(out.Accepted, q)
		out.Counts.Add(q.Difficulty)
		seen.Add(q.Text)
	}

	out.Shortfall = BucketCounts{
		Easy:   quota.Easy - out.Counts.Easy,
		Medium: quota.Medium - out.Counts.Medium,
		Hard:   quota.Hard - out.Counts.Hard,
	}
	return out
}

// allocateInto resumes a prior allocation with the refill candidates, topping
// buckets up to the same quota.
func allocateInto(prior allocation, candidates []Question, quota BucketCounts, seen ExactSet) allocation {
	for _, q := range candidates {
		if seen.Has(q.Text) {
			continue
		}
		if prior.Counts.Get(q.Difficulty) >= quota.Get(q.Difficulty) {
			continue
		}
		prior.Accepted = append(prior.Accepted, q)
		prior.Counts.Add(q.Difficulty)
		seen.Add(q.Text)
	}
	prior.Shortfall = BucketCounts{
		Easy:   quota.Easy - prior.Counts.Easy,
		Medium: quota.Medium - prior.Counts.Medium,
		Hard:   quota.Hard - prior.Counts.Hard,
	}
	return prior
}
