package preview

// drawRule draws a separator line: '=' as a double rule, '-' as dashes
func (c *canvas) drawRule(ch byte) {
	c.ensureHeight(lineHeight)

	y := c.y + lineHeight/2
	x1 := float64(textMargin)
	x2 := float64(c.width - textMargin)

	c.ctx.SetLineWidth(1)

	switch ch {
	case '=':
		c.ctx.DrawLine(x1, y-2, x2, y-2)
		c.ctx.Stroke()
		c.ctx.DrawLine(x1, y+1, x2, y+1)
		c.ctx.Stroke()

	default:
		dashLength := 4.0
		gapLength := 3.0
		for x := x1; x < x2; x += dashLength + gapLength {
			endX := x + dashLength
			if endX > x2 {
				endX = x2
			}
			c.ctx.DrawLine(x, y, endX, y)
			c.ctx.Stroke()
		}
	}

	c.y += lineHeight
}
