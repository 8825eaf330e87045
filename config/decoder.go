package config

import "github.com/sio-go/sio/decoder"

// RegisterDecoderConfig binds every beam_search.* key to cfg's fields,
// exactly the recognized-keys table: debug, beam, max_active,
// token_set_size, nbest, insertion_penalty, apply_score_offsets,
// token_allocator_slab_size.
func RegisterDecoderConfig(l *Loader, cfg *decoder.Config) {
	l.Register("beam_search.debug", &cfg.Debug)
	l.Register("beam_search.beam", &cfg.Beam)
	l.Register("beam_search.max_active", &cfg.MaxActive)
	l.Register("beam_search.token_set_size", &cfg.TokenSetSize)
	l.Register("beam_search.nbest", &cfg.NBest)
	l.Register("beam_search.insertion_penalty", &cfg.InsertionPenalty)
	l.Register("beam_search.apply_score_offsets", &cfg.ApplyScoreOffsets)
	l.Register("beam_search.token_allocator_slab_size", &cfg.TokenAllocatorSlabSize)
}
