package session

// Keyboard is a transport-neutral reply keyboard.
type Keyboard struct {
	Rows [][]string
}

func (s *Service) mainKeyboard() *Keyboard {
	b := s.cfg.Buttons
	return &Keyboard{Rows: [][]string{
		{b.Launch},
		{b.ChangeTime, b.Stop},
		{b.Skip},
	}}
}

func (s *Service) regionKeyboard() *Keyboard {
	labels := s.zones.Labels()
	rows := make([][]string, 0, len(labels)/2+1)
	for i := 0; i < len(labels); i += 2 {
		end := min(i+2, len(labels))
		rows = append(rows, labels[i:end])
	}
	return &Keyboard{Rows: rows}
}

func (s *Service) timeKeyboard() *Keyboard {
	rows := make([][]string, 0, len(s.cfg.Session.TimePresets)+1)
	for _, t := range s.cfg.Session.TimePresets {
		rows = append(rows, []string{t})
	}
	rows = append(rows, []string{s.cfg.Buttons.Back})
	return &Keyboard{Rows: rows}
}
