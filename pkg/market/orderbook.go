package market

// Empty reports whether either side of the book has no levels.
func (s *OrderBookSnapshot) Empty() bool {
	return s == nil || len(s.Bids) == 0 || len(s.Asks) == 0
}

// BestBid returns the highest bid. ok is false on an empty side.
func (s *OrderBookSnapshot) BestBid() (Level, bool) {
	if s == nil || len(s.Bids) == 0 {
		return Level{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask. ok is false on an empty side.
func (s *OrderBookSnapshot) BestAsk() (Level, bool) {
	if s == nil || len(s.Asks) == 0 {
		return Level{}, false
	}
	return s.Asks[0], true
}

// DeepestBid returns the lowest bid included in the snapshot.
func (s *OrderBookSnapshot) DeepestBid() (Level, bool) {
	if s == nil || len(s.Bids) == 0 {
		return Level{}, false
	}
	return s.Bids[len(s.Bids)-1], true
}

// DeepestAsk returns the highest ask included in the snapshot.
func (s *OrderBookSnapshot) DeepestAsk() (Level, bool) {
	if s == nil || len(s.Asks) == 0 {
		return Level{}, false
	}
	return s.Asks[len(s.Asks)-1], true
}

// Mid returns the midpoint between best bid and best ask.
func (s *OrderBookSnapshot) Mid() float64 {
	bid, okBid := s.BestBid()
	ask, okAsk := s.BestAsk()
	if !okBid || !okAsk {
		return 0
	}
	return (bid.Price + ask.Price) / 2
}
