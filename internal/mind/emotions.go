package mind

import "time"

const (
	emotionHistoryCap = 200
	emotionDecay      = 0.98
	emotionBump       = 0.1
)

var emotionNames = []string{"anger", "sadness", "calmness", "focus", "excitement", "fear"}

// updateEmotionMatrix bumps every emotion whose keywords appear in the
// message and decays the rest multiplicatively toward zero.
func (u *User) updateEmotionMatrix(text string, now time.Time) {
	lt := u.LongTerm
	hits := DetectEmotions(text)

	matrix := make(map[string]float64, len(emotionNames))
	for _, emo := range emotionNames {
		v := lt.EmotionMatrix[emo]
		if contains(hits, emo) {
			v = clamp(v+emotionBump, 0, 1)
		} else {
			v = clamp(v*emotionDecay, 0, 1)
		}
		matrix[emo] = round3(v)
	}

	lt.EmotionMatrix = matrix
	lt.EmotionHistory = append(lt.EmotionHistory, EmotionSnapshot{TS: now, Matrix: matrix})
	if len(lt.EmotionHistory) > emotionHistoryCap {
		lt.EmotionHistory = append([]EmotionSnapshot(nil), lt.EmotionHistory[len(lt.EmotionHistory)-emotionHistoryCap:]...)
	}
}

// TopEmotions returns up to n emotions ordered by intensity.
func (u *User) TopEmotions(n int) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return topEmotions(u.LongTerm.EmotionMatrix, n)
}

func topEmotions(matrix map[string]float64, n int) []string {
	names := append([]string(nil), emotionNames...)
	for i := 0; i < len(names)-1; i++ {
		for j := i + 1; j < len(names); j++ {
			if matrix[names[j]] > matrix[names[i]] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	if len(names) > n {
		names = names[:n]
	}
	return names
}
