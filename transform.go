package scopeview

// Mat4 is a column-major 4x4 matrix, the layout GPU uniform blocks expect.
type Mat4 [16]float32

// identityMat4 returns the identity matrix.
func identityMat4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// scaled returns m * S(sx, sy, sz).
func (m Mat4) scaled(sx, sy, sz float32) Mat4 {
	out := m
	for i := 0; i < 4; i++ {
		out[i] *= sx
		out[4+i] *= sy
		out[8+i] *= sz
	}
	return out
}

// translated returns m * T(tx, ty, tz).
func (m Mat4) translated(tx, ty, tz float32) Mat4 {
	out := m
	for i := 0; i < 4; i++ {
		out[12+i] = m[i]*tx + m[4+i]*ty + m[8+i]*tz + m[12+i]
	}
	return out
}

// fitTransform maps the unit quad so the whole image fits the view while
// preserving its aspect ratio: with correction = imageAspect / viewAspect,
// a correction of at most 1 shrinks X by it, otherwise Y shrinks by its
// inverse.
func fitTransform(imageAspect, viewAspect float32) Mat4 {
	correction := imageAspect / viewAspect
	if correction <= 1 {
		return identityMat4().scaled(correction, 1, 1)
	}
	return identityMat4().scaled(1, 1/correction, 1)
}

// manualTransform builds the pan/zoom transform: aspect correction, then
// the pan offset converted from view pixels to clip units (X compensated
// for the correction so pans stay screen-axis aligned), then the uniform
// zoom that makes a zoom factor of 1 show the image at its natural pixel
// height.
func manualTransform(imageAspect float32, imageH, viewW, viewH int, zoom float32, pan [2]float32) Mat4 {
	viewAspect := float32(viewW) / float32(viewH)
	correction := imageAspect / viewAspect
	pansX := pan[0] / float32(viewW) * 2
	pansY := pan[1] / float32(viewH) * 2
	sizeRatio := zoom * float32(imageH) / float32(viewH)

	m := identityMat4().scaled(correction, 1, 1)
	m = m.translated(-(pansX * (1 / correction)), pansY, 0)
	return m.scaled(sizeRatio, sizeRatio, 1)
}
