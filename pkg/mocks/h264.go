package mocks

// bitWriter writes the RBSP syntax elements needed for minimal parameter sets.
type bitWriter struct {
	out  []byte
	cur  byte
	nbit int
}

func (w *bitWriter) bit(b uint) {
	w.cur = w.cur<<1 | byte(b&1)
	w.nbit++
	if w.nbit == 8 {
		w.out = append(w.out, w.cur)
		w.cur, w.nbit = 0, 0
	}
}

func (w *bitWriter) bits(v uint, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bit(v >> uint(i))
	}
}

// ue writes an unsigned Exp-Golomb code.
func (w *bitWriter) ue(v uint) {
	v++
	n := 0
	for t := v; t > 1; t >>= 1 {
		n++
	}
	w.bits(0, n)
	w.bits(v, n+1)
}

// trailing writes rbsp_trailing_bits.
func (w *bitWriter) trailing() []byte {
	w.bit(1)
	for w.nbit != 0 {
		w.bit(0)
	}
	return w.out
}

// H264SPS returns a baseline-profile SPS NAL unit for a picture of
// width x height, both multiples of 16.
func H264SPS(width, height int) []byte {
	w := &bitWriter{}
	w.bits(0x67, 8) // forbidden_zero_bit, nal_ref_idc=3, nal_unit_type=7
	w.bits(66, 8)   // profile_idc: baseline
	w.bits(0xc0, 8) // constraint_set0/1
	w.bits(30, 8)   // level_idc
	w.ue(0)         // seq_parameter_set_id
	w.ue(0)         // log2_max_frame_num_minus4
	w.ue(2)         // pic_order_cnt_type
	w.ue(1)         // max_num_ref_frames
	w.bit(0)        // gaps_in_frame_num_value_allowed_flag
	w.ue(uint(width/16 - 1))
	w.ue(uint(height/16 - 1))
	w.bit(1) // frame_mbs_only_flag
	w.bit(1) // direct_8x8_inference_flag
	w.bit(0) // frame_cropping_flag
	w.bit(0) // vui_parameters_present_flag
	return w.trailing()
}

// H264PPS returns a PPS NAL unit matching H264SPS.
func H264PPS() []byte {
	w := &bitWriter{}
	w.bits(0x68, 8)
	w.ue(0)      // pic_parameter_set_id
	w.ue(0)      // seq_parameter_set_id
	w.bit(0)     // entropy_coding_mode_flag
	w.bit(0)     // bottom_field_pic_order_in_frame_present_flag
	w.ue(0)      // num_slice_groups_minus1
	w.ue(0)      // num_ref_idx_l0_default_active_minus1
	w.ue(0)      // num_ref_idx_l1_default_active_minus1
	w.bit(0)     // weighted_pred_flag
	w.bits(0, 2) // weighted_bipred_idc
	w.ue(0)      // pic_init_qp_minus26 (se 0)
	w.ue(0)      // pic_init_qs_minus26 (se 0)
	w.ue(0)      // chroma_qp_index_offset (se 0)
	w.bit(1)     // deblocking_filter_control_present_flag
	w.bit(0)     // constrained_intra_pred_flag
	w.bit(0)     // redundant_pic_cnt_present_flag
	return w.trailing()
}

var startCode = []byte{0, 0, 0, 1}

// H264AccessUnit returns an Annex B access unit with an access unit
// delimiter and a placeholder slice. Keyframes carry SPS, PPS and an IDR slice.
func H264AccessUnit(width, height int, keyframe bool, payload byte) []byte {
	var au []byte
	au = append(au, startCode...)
	au = append(au, 0x09, 0xf0)
	if keyframe {
		au = append(au, startCode...)
		au = append(au, H264SPS(width, height)...)
		au = append(au, startCode...)
		au = append(au, H264PPS()...)
		au = append(au, startCode...)
		au = append(au, 0x65, 0x88, 0x84, payload, 0x80)
		return au
	}
	au = append(au, startCode...)
	au = append(au, 0x41, 0x9a, 0x02, payload, 0x80)
	return au
}
