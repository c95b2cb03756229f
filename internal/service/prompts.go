package service

import (
	"github.com/luckyrocket0125/studycare-be/internal/model"
)

func languageLine(profile model.Profile) string {
	line := "Answer in the user's preferred language: " + profile.Language + "."
	if profile.SimplifiedMode {
		line += " Use short sentences and simple words suitable for a young learner."
	}
	return line
}

func tutorPrompt(profile model.Profile) string {
	return "You are a patient tutor helping a student understand their school subjects. " +
		"Explain step by step and encourage the student to think. " + languageLine(profile)
}

func imagePrompt(profile model.Profile) string {
	return "You are a study assistant. Read any text in the image, transcribe it, and explain " +
		"what the material is about. " + languageLine(profile)
}

func summaryPrompt(profile model.Profile) string {
	return "Summarize the following study note in a few short bullet points. " + languageLine(profile)
}

func explanationPrompt(profile model.Profile) string {
	return "Explain the following study note in plain language, as if to someone new to the topic. " +
		languageLine(profile)
}

func symptomPrompt(profile model.Profile) string {
	return "You help students and caregivers decide whether a described health concern needs " +
		"attention from the school nurse, a doctor, or rest at home. You never diagnose; you give " +
		"cautious general guidance and always advise seeing a professional when in doubt. " +
		languageLine(profile)
}

func podGuidancePrompt() string {
	return "You are a study-group assistant. A member asked a question in the group chat. " +
		"Give a short, helpful hint that moves the group forward without doing the work for them."
}
