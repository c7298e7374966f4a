// Package prompts builds the personalized system prompt sent to the model:
// a fixed trainer persona, the caller's stored profile and active training
// menu, and a language directive derived from the latest user message.
package prompts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"fitcoach/fitcoach/sources/psql/models"
	"fitcoach/fitcoach/types"
)

const FitnessSystemPrompt = `あなたは経験豊富なパーソナルトレーナーです。
**必ず日本語で回答してください。**

ユーザーの質問に対して、以下の観点から回答してください：

1. 安全性を最優先に考慮
2. ユーザーのレベルに応じた適切なアドバイス
3. 具体的で実践しやすい内容
4. 科学的根拠に基づいた情報

常に怪我防止を意識し、正しいフォームの重要性を強調してください。
初心者には基礎から、上級者には専門的なアドバイスを提供してください。

**重要: すべての回答は日本語で行い、専門用語も可能な限り日本語で説明してください。**`

const notSet = "設定なし"

// Hiragana, Katakana, CJK unified ideographs. Presence of any such rune marks
// the message as Japanese; mixed-script input counts.
var japaneseRunes = regexp.MustCompile(`[\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}]`)

func DetectLanguage(userMessage string) string {
	if japaneseRunes.MatchString(userMessage) {
		return "ja"
	}
	return "en"
}

func languageInstruction(userMessage string) string {
	if userMessage == "" || DetectLanguage(userMessage) == "ja" {
		return "**必ず日本語で回答してください。**"
	}
	return "**Please respond in English.**"
}

// NormalizeListField renders a stored list field as a readable comma-joined
// string. The column may hold a JSON array, a JSON-encoded string wrapping
// one, or a multiply-escaped artifact of repeated re-serialization upstream;
// the unwrap iterates until stable and degrades to stripping quote, bracket
// and backslash characters when no nesting level parses. Never fails.
func NormalizeListField(field *string) string {
	if field == nil || *field == "" {
		return notSet
	}

	s := strings.TrimSpace(*field)
	for i := 0; i < 8; i++ {
		var items []any
		if err := json.Unmarshal([]byte(s), &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				text := strings.TrimSpace(fmt.Sprint(item))
				if text != "" {
					parts = append(parts, text)
				}
			}
			if len(parts) == 0 {
				return notSet
			}
			return strings.Join(parts, ", ")
		}
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err == nil && inner != s {
			s = strings.TrimSpace(inner)
			continue
		}
		break
	}

	// Irrecoverable input: best-effort character strip.
	cleaned := strings.NewReplacer(
		`"`, "", `'`, "", `\`, "", "[", "", "]", "",
	).Replace(s)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return notSet
	}
	return cleaned
}

func orNotSet(value *string) string {
	if value == nil || *value == "" {
		return notSet
	}
	return *value
}

func intWithUnit(value *int, unit string) string {
	if value == nil {
		return notSet
	}
	return fmt.Sprintf("%d%s", *value, unit)
}

// RenderTrainingMenu formats the active menu one line per day. Rest days show
// only the day header; empty menus render as the not-set placeholder.
func RenderTrainingMenu(menu []types.TrainingDayView) string {
	if len(menu) == 0 {
		return notSet
	}
	lines := make([]string, 0, len(menu))
	for i, day := range menu {
		header := fmt.Sprintf("%d日目: %s", i+1, day.Name)
		if day.IsRestDay {
			header += "(オフ)"
		}
		if day.IsRestDay || len(day.Exercises) == 0 {
			lines = append(lines, header)
			continue
		}
		exercises := make([]string, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			tokens := []string{fmt.Sprintf("%s(%s)", ex.ExerciseName, ex.TargetMuscle)}
			if ex.Weight != nil {
				tokens = append(tokens, fmt.Sprintf("%gkg", *ex.Weight))
			}
			if ex.Sets != nil {
				tokens = append(tokens, fmt.Sprintf("%dset", *ex.Sets))
			}
			if ex.Reps != nil {
				tokens = append(tokens, fmt.Sprintf("%drep", *ex.Reps))
			}
			exercises = append(exercises, strings.Join(tokens, " "))
		}
		lines = append(lines, header+": "+strings.Join(exercises, ", "))
	}
	return strings.Join(lines, "\n")
}

// GeneratePersonalizedPrompt combines the persona preamble with the profile,
// training menu and language directive. A nil profile yields the preamble
// plus a prompt to complete profile setup.
func GeneratePersonalizedPrompt(profile *models.UserProfile, userMessage string, menu []types.TrainingDayView) string {
	instruction := languageInstruction(userMessage)

	if profile == nil {
		return fmt.Sprintf(`%s
%s

※ ユーザープロフィールが設定されていません。より具体的なアドバイスを受けるために、プロフィール設定をお勧めします。`,
			FitnessSystemPrompt, instruction)
	}

	weight := notSet
	if profile.Weight != nil {
		weight = fmt.Sprintf("%gkg", *profile.Weight)
	}
	frequency := notSet
	if profile.TrainingFrequency != nil {
		frequency = fmt.Sprintf("%d回/週", *profile.TrainingFrequency)
	}
	dietary := "なし"
	if profile.DietaryRestrictions != nil && *profile.DietaryRestrictions != "" {
		dietary = *profile.DietaryRestrictions
	}

	return fmt.Sprintf(`%s
%s

ユーザー情報:
- レベル: %s
- 年齢: %s
- 性別: %s
- 身長: %s
- 体重: %s
- トレーニング頻度: %s
- 好みの時間帯: %s
- 目標: %s
- 現在の習慣: %s
- 食事制限: %s

現在のトレーニングメニュー:
%s

この詳細な情報を考慮して、より具体的で個人に適したアドバイスを提供してください。`,
		FitnessSystemPrompt,
		instruction,
		orNotSet(profile.FitnessLevel),
		intWithUnit(profile.Age, "歳"),
		orNotSet(profile.Gender),
		intWithUnit(profile.Height, "cm"),
		weight,
		frequency,
		orNotSet(profile.PreferredTrainingTime),
		NormalizeListField(profile.Goals),
		NormalizeListField(profile.CurrentHabits),
		dietary,
		RenderTrainingMenu(menu),
	)
}
